//go:build !linux

package mount

import "github.com/moby/sys/mountinfo"

func parseMountInfo([]byte, mountinfo.FilterFunc) ([]*mountinfo.Info, error) {
	return nil, ErrUnsupported
}
