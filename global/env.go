package global

import (
	"github.com/haierkeys/unified-backup-service/pkg/fileurl"
)

var (
	// ROOT is the executable's directory
	ROOT string
	Name string = "Unified Backup Service"
)

func init() {
	filename := fileurl.GetExePath()
	ROOT = filename + "/"
}
