package persistence

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/hupe1980/persist/identity"
)

const (
	objectsDir     = "objects/"
	checkpointsDir = "checkpoints/"
	recordExt      = ".rec"
	checkpointExt  = ".gen"

	// CurrentName is the blob holding the name of the latest checkpoint.
	CurrentName = "CURRENT"
)

// ObjectName returns the blob name of an object record.
func ObjectName(typeName string, id identity.ID) string {
	return objectsDir + typeName + "/" + id.String() + recordExt
}

// CheckpointName returns the blob name of checkpoint seq. Sequence numbers
// are zero-padded so lexical order matches numeric order.
func CheckpointName(seq uint64) string {
	return fmt.Sprintf("%s%020d%s", checkpointsDir, seq, checkpointExt)
}

func typePrefix(typeName string) string {
	return objectsDir + typeName + "/"
}

// parseObjectName extracts the id from a name returned by List under typePrefix.
func parseObjectName(prefix, name string) (identity.ID, bool) {
	base, ok := strings.CutPrefix(name, prefix)
	if !ok || strings.Contains(base, "/") {
		return identity.Null, false
	}
	base, ok = strings.CutSuffix(base, recordExt)
	if !ok {
		return identity.Null, false
	}
	v, err := strconv.ParseInt(base, 10, 64)
	if err != nil {
		return identity.Null, false
	}
	return identity.ID(v), true
}

// ParseCheckpointName returns the sequence number of a name produced by
// CheckpointName.
func ParseCheckpointName(name string) (uint64, bool) {
	if path.Dir(name)+"/" != checkpointsDir {
		return 0, false
	}
	base, ok := strings.CutSuffix(path.Base(name), checkpointExt)
	if !ok {
		return 0, false
	}
	seq, err := strconv.ParseUint(base, 10, 64)
	return seq, err == nil
}

func validTypeName(name string) bool {
	return name != "" && !strings.ContainsAny(name, "/\\") && name != "." && name != ".."
}
