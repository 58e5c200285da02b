// Package mount implements the three mounting techniques the engine
// chooses between:
//   - OverlayFS stacks module partition directories as overlayfs lowerdirs
//   - HymoFS asks the kernel to inject a directory without a real mount
//   - MagicMount bind-mounts individual files, mirroring directories on a
//     tmpfs staging area where new entries have to appear
//
// Every syscall goes through the Syscalls interface so the techniques can
// be exercised without privileges.
package mount
