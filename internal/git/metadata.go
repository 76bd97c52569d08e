package git

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

// ChangesRefPrefix is the namespace patch set refs live under
const ChangesRefPrefix = "refs/changes/"

var patchSetRefPattern = regexp.MustCompile(`^refs/changes/[0-9]{2}/[1-9][0-9]*/[1-9][0-9]*$`)

// IsPatchSetRef reports whether name is a patch set ref
func IsPatchSetRef(name plumbing.ReferenceName) bool {
	return patchSetRefPattern.MatchString(name.String())
}

// PatchSetRefName returns refs/changes/NN/<change>/<patchSet>, where NN is
// the last two digits of the change number. The shard keeps any one
// directory of loose refs small.
func PatchSetRefName(changeID, patchSetID int) plumbing.ReferenceName {
	return plumbing.ReferenceName(fmt.Sprintf("%s%02d/%d/%d", ChangesRefPrefix, changeID%100, changeID, patchSetID))
}

// ParsePatchSetRef extracts the change and patch set numbers from a patch set ref
func ParsePatchSetRef(name plumbing.ReferenceName) (changeID, patchSetID int, err error) {
	if !IsPatchSetRef(name) {
		return 0, 0, fmt.Errorf("not a patch set ref: %s", name)
	}
	parts := strings.Split(strings.TrimPrefix(name.String(), ChangesRefPrefix), "/")
	n := len(parts)
	changeID, err = strconv.Atoi(parts[n-2])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid change number in %s: %w", name, err)
	}
	patchSetID, err = strconv.Atoi(parts[n-1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid patch set number in %s: %w", name, err)
	}
	return changeID, patchSetID, nil
}

// PublishPatchSet points the patch set ref at its commit so the revision is
// reachable from a ref tip
func (s *Store) PublishPatchSet(ctx context.Context, changeID, patchSetID int, commit plumbing.Hash) error {
	return s.SetRef(ctx, PatchSetRefName(changeID, patchSetID), commit)
}
