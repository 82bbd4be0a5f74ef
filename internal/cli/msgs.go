package cli

// Command descriptions
const (
	MsgRootShort = "Keep configuration files in sync across machines"
	MsgRootLong  = `configsync keeps a team's configuration files in a git repository and
exposes them on every machine as links into that repository. Secrets are
stored encrypted and decrypted into place. Machines hold roles that decide
which entries apply to them.`

	MsgInitShort    = "Create or clone the managed repository and apply it"
	MsgAddShort     = "Move a file or directory into the repository and track it"
	MsgSecretsShort = "Manage encrypted entries"
	MsgSecretsInit  = "Create this machine's identity"
	MsgSecretsAdd   = "Encrypt a file into the repository and track it"
	MsgRoleShort    = "Manage this machine's roles"
	MsgRoleAdd      = "Assign roles to this machine"
	MsgRoleList     = "List this machine's roles"
	MsgPushShort    = "Commit local changes and push them"
	MsgPullShort    = "Fast-forward to the remote and apply"
	MsgApplyShort   = "Reconcile tracked entries on this machine"
	MsgWatchShort   = "Commit and push changes as they happen"
	MsgHistoryShort = "Show recent commits"
	MsgUndoShort    = "Revert a commit and apply the result"
	MsgDoctorShort  = "Check this machine's installation"
	MsgVersionShort = "Print version information"
)

// Flag descriptions
const (
	MsgFlagVerbose = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagNoColor = "Disable colored output"
	MsgFlagRoot    = "Managed repository directory (default $CONFIGSYNC_ROOT or $XDG_CONFIG_HOME/configsync)"
	MsgFlagURL     = "Remote to clone, or to register when it is empty"
	MsgFlagRole    = "Restrict to or assign a role (repeatable)"
	MsgFlagForce   = "Replace an existing identity"
	MsgFlagLimit   = "Number of commits to show (default from settings)"
	MsgFlagFormat  = "Output format: text or yaml"
)

// Output
const (
	MsgTracked       = "Tracking %s -> %s (%s, %s)\n"
	MsgPublicKey     = "Identity stored in %s\nPublic key: %s\n"
	MsgRoles         = "Roles: %s\n"
	MsgNoRoles       = "No roles assigned, only universal entries apply"
	MsgCommitted     = "Committed %s %s\n"
	MsgPulled        = "Pull: %s\n"
	MsgWarning       = "warning:"
	MsgWatching      = "Watching %s, press Ctrl-C to stop\n"
	MsgNoHistory     = "No commits yet"
	MsgErrFormat     = "unknown format %q, expected text or yaml"
	MsgErrUnhealthy  = "%d checks failed"
	MsgHistoryFormat = "%s  %s  %s\n"
	MsgHistoryTime   = "2006-01-02 15:04"
)
