package metrics

const (
	namespaceRPCNode = "rpcnode"

	subsystemLaunch = "launch"
	subsystemCache  = "eth_state_cache"
	subsystemTasks  = "tasks"
)

const (
	LabelPhase  = "phase"
	LabelResult = "result"
	LabelKind   = "kind"
	LabelTask   = "task"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"

	KindCommit = "commit"
	KindReorg  = "reorg"
)
