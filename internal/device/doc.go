// Package device determines a stable device identifier and a
// mount-relative storage path for filesystem paths.
//
// Catalog paths must survive remounts: a USB stick plugged into a
// different mount point is still the same volume, so identity has to
// follow the volume rather than the current mount location. The resolver
// matches a path against the system mount table (longest mount-point
// prefix wins), then names the device by volume label, volume UUID,
// network server/share, or raw device node, in that order. Paths on the
// root filesystem fall back to the machine hostname with an absolute
// path; paths on other mounts are stored relative to their mount point.
//
// Resolution never fails: any probe error degrades to hostname plus
// absolute path.
package device
