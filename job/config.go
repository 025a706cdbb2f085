package job

// Config is a Job's immutable creation-time configuration.
type Config struct {
	JobName            string
	PlottingSpace      string
	Destination        string
	S3Bucket           string // "" means no upload step
	FarmKey            string
	PoolKey            string
	ForwardConcurrency int
	LogDir             string
	IsMock             bool
}
