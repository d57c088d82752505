package models

// BehaviorSummary is the weekly digest from GET /behavior-summary.
type BehaviorSummary struct {
	Period              string          `json:"period"`
	TotalSuspicious     int             `json:"totalSuspicious"`
	UsersWithViolations int             `json:"usersWithViolations"`
	BlockedUsers        int             `json:"blockedUsers"`
	UserViolations      []UserViolation `json:"userViolations"`
}

type UserViolation struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Role           string  `json:"role"`
	ViolationCount int     `json:"violationCount"`
	AvgRiskScore   float64 `json:"avgRiskScore"`
}

// AIStatus describes the analysis engine's configuration.
type AIStatus struct {
	AIConfig struct {
		Thresholds struct {
			HighRisk float64 `json:"highRisk"`
		} `json:"thresholds"`
		Patterns []string `json:"patterns"`
	} `json:"aiConfig"`
	LastAnalysis string `json:"lastAnalysis"`
}

type RiskDistribution struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

type RiskUser struct {
	ID        string  `json:"_id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	RiskScore float64 `json:"riskScore"`
}

type AIInsights struct {
	TotalUsers       int              `json:"totalUsers"`
	RiskDistribution RiskDistribution `json:"riskDistribution"`
	TopRiskUsers     []RiskUser       `json:"topRiskUsers"`
}

// TopUsers returns at most n of the highest-risk users.
func (i AIInsights) TopUsers(n int) []RiskUser {
	if len(i.TopRiskUsers) <= n {
		return i.TopRiskUsers
	}
	return i.TopRiskUsers[:n]
}

type UserAnalysis struct {
	RiskScore       float64  `json:"riskScore"`
	Analysis        string   `json:"analysis"`
	Recommendations []string `json:"recommendations"`
}
