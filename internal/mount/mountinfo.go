package mount

import (
	"github.com/moby/sys/mountinfo"

	"github.com/hybridmount/hybridmount/internal/fsops"
)

// procMountInfo lists the mount table of the calling process.
const procMountInfo = "/proc/self/mountinfo"

// mountsBySource returns the mount points whose source is source. When
// fstype is non-empty only mounts of that type are returned. A table that
// cannot be read or parsed yields nothing.
func mountsBySource(fs fsops.FS, source, fstype string) map[string]bool {
	data, err := fs.ReadFile(procMountInfo)
	if err != nil {
		return nil
	}

	infos, err := parseMountInfo(data, sourceFilter(source, fstype))
	if err != nil {
		return nil
	}
	out := make(map[string]bool, len(infos))
	for _, info := range infos {
		out[info.Mountpoint] = true
	}
	return out
}

func sourceFilter(source, fstype string) mountinfo.FilterFunc {
	var byType mountinfo.FilterFunc
	if fstype != "" {
		byType = mountinfo.FSTypeFilter(fstype)
	}
	return func(info *mountinfo.Info) (skip, stop bool) {
		if byType != nil {
			if wrongType, _ := byType(info); wrongType {
				return true, false
			}
		}
		return info.Source != source, false
	}
}
