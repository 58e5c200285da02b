//go:build !unix

package tempdir

func isWritable(string) bool { return false }
