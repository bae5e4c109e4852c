package audit

// Audit action and resource names. Actions are verbs scoped by the resource
// they act on; handlers pass them to AuditLogger.LogEvent verbatim.
const (
	ResourceSession = "session"
	ResourceToken   = "token"
	ResourceNotice  = "notice"

	ActionLogin        = "login"
	ActionLoginFailure = "login_failure"
	ActionLogout       = "logout"
	ActionRevokeAll    = "revoke_all"

	ActionIssue      = "issue"
	ActionConsume    = "consume"
	ActionDisable    = "disable"
	ActionRegenerate = "regenerate"

	ActionBroadcast = "broadcast"
)
