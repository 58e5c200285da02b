package mount

import (
	"bytes"

	"github.com/moby/sys/mountinfo"
)

func parseMountInfo(data []byte, filter mountinfo.FilterFunc) ([]*mountinfo.Info, error) {
	return mountinfo.GetMountsFromReader(bytes.NewReader(data), filter)
}
