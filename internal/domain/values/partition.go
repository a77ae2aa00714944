package values

import (
	"errors"
	"strings"
)

// PartitionSeparator delimits segments of a partition path.
const PartitionSeparator = "/"

// RootPartition is the partition of the root containment model.
const RootPartition = "/"

// ErrAboveRoot is returned when a relative path climbs past the root partition.
var ErrAboveRoot = errors.New("illegal attempt to reference a containment context above the root context")

// ResolvePath resolves a directive source against a partition.
//
//	"/x"    absolute, returned as is
//	"../x"  resolved against the parent partition
//	"./x"   resolved against the same partition
//	"x"     appended to the partition
func ResolvePath(partition, source string) (string, error) {
	switch {
	case strings.HasPrefix(source, "/"):
		return source, nil
	case strings.HasPrefix(source, "../"):
		parent, err := ParentPartition(partition)
		if err != nil {
			return "", err
		}
		return ResolvePath(parent, source[3:])
	case strings.HasPrefix(source, "./"):
		return ResolvePath(partition, source[2:])
	default:
		return partition + source, nil
	}
}

// ParentPartition returns the partition enclosing partition.
// "/a/b/" yields "/a/", "/a/" yields "/" and "/" fails with ErrAboveRoot.
func ParentPartition(partition string) (string, error) {
	trimmed := strings.TrimSuffix(partition, PartitionSeparator)
	if trimmed == "" {
		return "", ErrAboveRoot
	}
	idx := strings.LastIndex(trimmed, PartitionSeparator)
	if idx <= 0 {
		return RootPartition, nil
	}
	return trimmed[:idx] + PartitionSeparator, nil
}

// ChildPartition returns the partition of a containment model named name
// nested inside parent.
func ChildPartition(parent, name string) string {
	if parent == "" {
		return RootPartition
	}
	return parent + name + PartitionSeparator
}

// QualifiedName joins a partition and a model name.
func QualifiedName(partition, name string) string {
	return partition + name
}

// SplitPath breaks a model path into its non-empty segments.
func SplitPath(path string) []string {
	var segments []string
	for _, s := range strings.Split(path, PartitionSeparator) {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// LoggingCategory converts a partition path into a dotted logging category.
// The root partition maps to the empty category.
func LoggingCategory(path string) string {
	return strings.Join(SplitPath(path), ".")
}
