package filesystem

const (
	// TemporaryNamePrefix is the file name prefix used for the temporary
	// files of staged transfers. Manifest population does not treat this
	// prefix specially: an in-flight file present during a population pass
	// is recorded like any other file.
	TemporaryNamePrefix = ".baycat-temporary-"
)
