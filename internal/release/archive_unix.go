//go:build unix

package release

import (
	"time"

	"golang.org/x/sys/unix"
)

// lchtimes restores timestamps on a symlink itself. Best effort: some
// filesystems cannot set link times at all.
func lchtimes(path string, atime, mtime time.Time) {
	tv := []unix.Timeval{
		unix.NsecToTimeval(atime.UnixNano()),
		unix.NsecToTimeval(mtime.UnixNano()),
	}
	if err := unix.Lutimes(path, tv); err != nil {
		debugf("failed to set times for symlink %s: %v\n", path, err)
	}
}
