package repo

import (
	"fmt"

	"github.com/odvcencio/rug/pkg/diff"
	"github.com/odvcencio/rug/pkg/index"
	"github.com/odvcencio/rug/pkg/object"
)

// DiffWorkspace returns a patch for every path whose workspace copy differs
// from the index. A nil report runs Status first.
func (r *Repo) DiffWorkspace(rep *StatusReport) ([]*diff.FilePatch, error) {
	rep, err := r.ensureReport(rep)
	if err != nil {
		return nil, err
	}
	entries := indexByPath(rep.Index)
	arena := r.NewArena()

	var patches []*diff.FilePatch
	for _, st := range rep.Unstaged() {
		e := entries[st.Path]
		if e == nil {
			continue
		}
		p := &diff.FilePatch{Path: st.Path}
		if err := fillSide(arena, e.Hash, e.Mode, &p.OldHash, &p.OldMode, &p.Old); err != nil {
			return nil, fmt.Errorf("diff %q: %w", st.Path, err)
		}
		if st.WorkStatus == StatusModified {
			data, ok := rep.Content(st.Path)
			if !ok {
				data, err = r.Workspace.Read(st.Path)
				if err != nil {
					return nil, fmt.Errorf("diff: %w", err)
				}
			}
			p.New = data
			p.NewHash = object.HashObject(object.TypeBlob, data)
			p.NewMode = e.Mode
			if info, ok := rep.Stat(st.Path); ok {
				p.NewMode = index.ModeFromFileInfo(info)
			}
		}
		patches = append(patches, p)
	}
	return patches, nil
}

// DiffCached returns a patch for every path whose index entry differs from
// the HEAD tree. A nil report runs Status first.
func (r *Repo) DiffCached(rep *StatusReport) ([]*diff.FilePatch, error) {
	rep, err := r.ensureReport(rep)
	if err != nil {
		return nil, err
	}
	entries := indexByPath(rep.Index)
	arena := r.NewArena()

	var patches []*diff.FilePatch
	for _, st := range rep.Staged() {
		p := &diff.FilePatch{Path: st.Path}
		if he, ok := rep.HeadTree[st.Path]; ok {
			if err := fillSide(arena, he.Hash, he.Mode, &p.OldHash, &p.OldMode, &p.Old); err != nil {
				return nil, fmt.Errorf("diff %q: %w", st.Path, err)
			}
		}
		if e := entries[st.Path]; e != nil {
			if err := fillSide(arena, e.Hash, e.Mode, &p.NewHash, &p.NewMode, &p.New); err != nil {
				return nil, fmt.Errorf("diff %q: %w", st.Path, err)
			}
		}
		patches = append(patches, p)
	}
	return patches, nil
}

func (r *Repo) ensureReport(rep *StatusReport) (*StatusReport, error) {
	if rep != nil {
		return rep, nil
	}
	return r.Status()
}

func indexByPath(entries []*index.Entry) map[string]*index.Entry {
	out := make(map[string]*index.Entry, len(entries))
	for _, e := range entries {
		out[e.Path] = e
	}
	return out
}

func fillSide(arena *object.Arena, h object.Hash, mode string, hash *object.Hash, outMode *string, data *[]byte) error {
	blob, err := arena.Blob(h)
	if err != nil {
		return err
	}
	*hash = h
	*outMode = mode
	*data = blob.Data
	return nil
}
