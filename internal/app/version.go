package app

// Version information, injected at build time.
var (
	Version   string = "0.1.0"
	GitTag    string = "2000.01.01.release"
	BuildTime string = "2000-01-01T00:00:00+0800"
)

// Name is the application name.
const Name = "Unified Backup Service"
