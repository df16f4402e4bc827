package operation

// Config is the typed per-operation configuration decoded from the caller's
// configuration field. Each operation type has exactly one variant.
type Config interface {
	OperationType() Type
}

// AutomationConfig configures task-automation operations.
type AutomationConfig struct {
	TaskType      string   `json:"task_type"`
	MaxRetries    int      `json:"max_retries"`
	ErrorHandling string   `json:"error_handling"`
	Tools         []string `json:"tools"`
}

func (AutomationConfig) OperationType() Type { return TaskAutomation }

// MentorshipConfig configures mentorship-guidance operations.
type MentorshipConfig struct {
	ExpertiseLevel string   `json:"expertise_level"`
	KnowledgeBase  string   `json:"knowledge_base"`
	IncludeSources bool     `json:"include_sources"`
	FocusAreas     []string `json:"focus_areas"`
}

func (MentorshipConfig) OperationType() Type { return MentorshipGuidance }

// SupervisionConfig configures supervision operations.
type SupervisionConfig struct {
	EscalationThreshold    float64 `json:"escalation_threshold"`
	MaxConcurrentWorkflows int     `json:"max_concurrent_workflows"`
	RequireApproval        bool    `json:"require_approval"`
}

func (SupervisionConfig) OperationType() Type { return Supervision }

// AdministrationConfig configures tenant-administration operations.
type AdministrationConfig struct {
	Action   string `json:"action"`
	AuditLog bool   `json:"audit_log"`
}

func (AdministrationConfig) OperationType() Type { return TenantAdministration }

// IntegrationConfig configures market-integration operations.
type IntegrationConfig struct {
	Provider    string `json:"provider"`
	SandboxMode bool   `json:"sandbox_mode"`
	CallbackURL string `json:"callback_url"`
}

func (IntegrationConfig) OperationType() Type { return MarketIntegration }

// WorkflowConfig configures workflow-execution operations.
type WorkflowConfig struct {
	MaxSteps int  `json:"max_steps"`
	FailFast bool `json:"fail_fast"`
}

func (WorkflowConfig) OperationType() Type { return WorkflowExecution }
