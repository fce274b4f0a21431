package gate

// Policy is the configurable keyword-to-tier rule set. The compiled-in
// defaults cover the known protected topics; deployments override the
// lists rather than the code.
type Policy struct {
	Topics      []TopicRule
	Sensitivity []SensitivityRule
}

// TopicRule ties a protected topic to a minimum role level. A caller
// whose role level is numerically above MinRole (lower authority) is
// blocked outright.
type TopicRule struct {
	Topic    string
	Keywords []string
	MinRole  int
}

// SensitivityRule tags one keyword with a 1-6 sensitivity tier. A caller
// whose clearance is below the tier gets the term redacted, and the
// request continues.
type SensitivityRule struct {
	Keyword string
	Tier    int
}

// Role names by level, 1 = highest authority.
var roleNames = map[int]string{
	1: "Leadership",
	2: "Director",
	3: "Manager",
	4: "Staff",
}

const (
	minRoleLevel = 1
	maxRoleLevel = 4
	minClearance = 1
	maxClearance = 6
)

// RoleName returns the display name for a role level.
func RoleName(level int) string {
	if name, ok := roleNames[level]; ok {
		return name
	}
	return "unknown"
}

// DefaultPolicy is the compiled-in rule set.
func DefaultPolicy() Policy {
	return Policy{
		Topics: []TopicRule{
			{
				Topic:    "strategic_plans",
				Keywords: []string{"strategic plan", "board-level", "board strategy", "acquisition target", "merger plan"},
				MinRole:  1,
			},
			{
				Topic:    "financial_figures",
				Keywords: []string{"revenue figures", "profit margin", "p&l", "earnings report", "financial figures"},
				MinRole:  2,
			},
			{
				Topic:    "personnel_actions",
				Keywords: []string{"termination list", "layoff plan", "performance review"},
				MinRole:  2,
			},
		},
		Sensitivity: []SensitivityRule{
			{Keyword: "budget", Tier: 4},
			{Keyword: "deal value", Tier: 4},
			{Keyword: "contract value", Tier: 4},
			{Keyword: "salary", Tier: 5},
			{Keyword: "compensation", Tier: 5},
			{Keyword: "valuation", Tier: 5},
			{Keyword: "headcount", Tier: 3},
		},
	}
}
