package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// errPathCollision is returned when a merged tree would hold a file and a
// directory under the same path
var errPathCollision = errors.New("file and directory share a path")

// MergeResult is the outcome of a three-way tree merge
type MergeResult struct {
	// Tree is the merged tree, zero when the merge conflicted
	Tree plumbing.Hash
	// Conflicts lists the paths both sides changed differently
	Conflicts []string
}

// Clean reports whether the merge produced a tree
func (r *MergeResult) Clean() bool {
	return len(r.Conflicts) == 0
}

// Merge performs a path-level three-way merge of the trees of ours and theirs
// against their merge base. A path changed on only one side takes that side's
// version; a path changed identically on both sides is kept; any other change
// to the same path on both sides is a conflict. No content-level merging is
// attempted, so the result never needs manual resolution.
//
// A conflict is reported in the result, not as an error.
func (s *Store) Merge(ctx context.Context, ours, theirs plumbing.Hash) (*MergeResult, error) {
	oursCommit, err := s.commit(ours)
	if err != nil {
		return nil, err
	}
	theirsCommit, err := s.commit(theirs)
	if err != nil {
		return nil, err
	}
	base, err := s.MergeBase(ctx, ours, theirs)
	if err != nil {
		return nil, err
	}

	baseFiles, err := flattenCommit(base)
	if err != nil {
		return nil, fmt.Errorf("failed to read merge base tree: %w", err)
	}
	oursFiles, err := flattenCommit(oursCommit)
	if err != nil {
		return nil, fmt.Errorf("failed to read tree of %s: %w", ours, err)
	}
	theirsFiles, err := flattenCommit(theirsCommit)
	if err != nil {
		return nil, fmt.Errorf("failed to read tree of %s: %w", theirs, err)
	}

	merged, conflicts := mergeFiles(baseFiles, oursFiles, theirsFiles)
	if len(conflicts) > 0 {
		return &MergeResult{Conflicts: conflicts}, nil
	}

	tree, err := s.WriteTree(ctx, merged)
	if errors.Is(err, errPathCollision) {
		return &MergeResult{Conflicts: collisionPaths(merged)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write merged tree: %w", err)
	}
	return &MergeResult{Tree: tree}, nil
}

// mergeFiles decides every path independently. Missing entries compare equal
// to each other, so deletions merge like any other change.
func mergeFiles(base, ours, theirs map[string]object.TreeEntry) (map[string]object.TreeEntry, []string) {
	paths := make(map[string]struct{}, len(ours)+len(theirs))
	for p := range base {
		paths[p] = struct{}{}
	}
	for p := range ours {
		paths[p] = struct{}{}
	}
	for p := range theirs {
		paths[p] = struct{}{}
	}

	merged := make(map[string]object.TreeEntry, len(paths))
	var conflicts []string
	for p := range paths {
		b, inBase := base[p]
		o, inOurs := ours[p]
		t, inTheirs := theirs[p]

		var pick object.TreeEntry
		var keep bool
		switch {
		case sameEntry(o, inOurs, t, inTheirs):
			pick, keep = o, inOurs
		case sameEntry(o, inOurs, b, inBase):
			pick, keep = t, inTheirs
		case sameEntry(t, inTheirs, b, inBase):
			pick, keep = o, inOurs
		default:
			conflicts = append(conflicts, p)
			continue
		}
		if keep {
			merged[p] = pick
		}
	}
	sort.Strings(conflicts)
	return merged, conflicts
}

func sameEntry(a object.TreeEntry, aOK bool, b object.TreeEntry, bOK bool) bool {
	if aOK != bOK {
		return false
	}
	return !aOK || (a.Mode == b.Mode && a.Hash == b.Hash)
}

// Files maps every non-directory path in the tree of a commit to its entry
func (s *Store) Files(_ context.Context, id plumbing.Hash) (map[string]object.TreeEntry, error) {
	c, err := s.commit(id)
	if err != nil {
		return nil, err
	}
	return flattenCommit(c)
}

// WriteTree stores the nested tree objects for a flat path → entry map and
// returns the root tree id
func (s *Store) WriteTree(_ context.Context, files map[string]object.TreeEntry) (plumbing.Hash, error) {
	root := newTreeBuilder()
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if err := root.insert(strings.Split(p, "/"), files[p]); err != nil {
			return plumbing.ZeroHash, fmt.Errorf("%s: %w", p, err)
		}
	}
	return root.write(s)
}

// collisionPaths lists the paths that are also a directory prefix of another path
func collisionPaths(files map[string]object.TreeEntry) []string {
	var out []string
	for p := range files {
		for q := range files {
			if strings.HasPrefix(q, p+"/") {
				out = append(out, p)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// flattenCommit maps every non-directory path of the commit's tree to its
// entry. A nil commit has an empty tree.
func flattenCommit(c *object.Commit) (map[string]object.TreeEntry, error) {
	files := make(map[string]object.TreeEntry)
	if c == nil {
		return files, nil
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}

	w := object.NewTreeWalker(tree, true, nil)
	defer w.Close()
	for {
		name, entry, err := w.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if entry.Mode == filemode.Dir {
			continue
		}
		files[name] = entry
	}
	return files, nil
}

// treeBuilder assembles nested tree objects from flattened paths
type treeBuilder struct {
	files map[string]object.TreeEntry
	dirs  map[string]*treeBuilder
}

func newTreeBuilder() *treeBuilder {
	return &treeBuilder{
		files: make(map[string]object.TreeEntry),
		dirs:  make(map[string]*treeBuilder),
	}
}

func (b *treeBuilder) insert(parts []string, entry object.TreeEntry) error {
	name := parts[0]
	if len(parts) == 1 {
		if _, ok := b.dirs[name]; ok {
			return errPathCollision
		}
		entry.Name = name
		b.files[name] = entry
		return nil
	}
	if _, ok := b.files[name]; ok {
		return errPathCollision
	}
	child, ok := b.dirs[name]
	if !ok {
		child = newTreeBuilder()
		b.dirs[name] = child
	}
	return child.insert(parts[1:], entry)
}

// write stores the tree and all subtrees, returning the root tree id
func (b *treeBuilder) write(s *Store) (plumbing.Hash, error) {
	entries := make([]object.TreeEntry, 0, len(b.files)+len(b.dirs))
	for _, e := range b.files {
		entries = append(entries, e)
	}
	for name, child := range b.dirs {
		h, err := child.write(s)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		entries = append(entries, object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: h})
	}

	// git orders entries as if directory names had a trailing slash
	sort.Slice(entries, func(i, j int) bool {
		return treeSortKey(entries[i]) < treeSortKey(entries[j])
	})

	tree := &object.Tree{Entries: entries}
	obj := s.repo.Storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, err
	}
	return s.repo.Storer.SetEncodedObject(obj)
}

func treeSortKey(e object.TreeEntry) string {
	if e.Mode == filemode.Dir {
		return e.Name + "/"
	}
	return e.Name
}
