package pagesnap

import (
	"context"
	"errors"
	"fmt"
)

// trackedProperties are the CSS properties the normalizer may override.
var trackedProperties = []string{
	"max-height",
	"height",
	"overflow",
	"overflow-x",
	"overflow-y",
	"position",
}

var overflowProperties = []string{"overflow", "overflow-x", "overflow-y"}

// styleDecl is one inline declaration. An empty Value means the property
// is not set inline.
type styleDecl struct {
	Value     string `json:"value"`
	Important bool   `json:"important"`
}

// elementStyle is a snapshot of one element's tracked properties.
type elementStyle struct {
	Ref      int                  `json:"ref"`
	Ancestor bool                 `json:"ancestor"`
	Tag      string               `json:"tag"`
	Computed map[string]string    `json:"computed"`
	Inline   map[string]styleDecl `json:"inline"`
}

// stylePatch sets inline declarations on the element with Ref.
type stylePatch struct {
	Ref    int                  `json:"ref"`
	Styles map[string]styleDecl `json:"styles"`
}

// restoreFunc undoes a normalization. It is safe to call more than once.
type restoreFunc func(ctx context.Context) error

// clipsOverflow reports whether an overflow value hides content.
func clipsOverflow(v string) bool {
	switch v {
	case "hidden", "auto", "scroll":
		return true
	}
	return false
}

// overridesFor returns the inline values that lift every clipping
// constraint on e. An element whose clipping is lifted also loses its
// fixed height. Clipping ancestors positioned relative or absolute are
// made static; this is best-effort and can move absolutely positioned
// wrappers.
func overridesFor(e elementStyle) map[string]string {
	out := make(map[string]string)
	clipping := false

	if mh := e.Computed["max-height"]; mh != "" && mh != "none" {
		out["max-height"] = "none"
		clipping = true
	}
	for _, prop := range overflowProperties {
		if clipsOverflow(e.Computed[prop]) {
			out[prop] = "visible"
			clipping = true
		}
	}
	if !clipping {
		return out
	}

	out["height"] = "auto"
	if e.Ancestor {
		switch e.Computed["position"] {
		case "relative", "absolute":
			out["position"] = "static"
		}
	}
	return out
}

// planNormalization builds the patches that lift constraints and the
// patches that put the original inline declarations back.
func planNormalization(styles []elementStyle) (apply, undo []stylePatch) {
	for _, e := range styles {
		overrides := overridesFor(e)
		if len(overrides) == 0 {
			continue
		}
		set := stylePatch{Ref: e.Ref, Styles: make(map[string]styleDecl, len(overrides))}
		orig := stylePatch{Ref: e.Ref, Styles: make(map[string]styleDecl, len(overrides))}
		for prop, v := range overrides {
			set.Styles[prop] = styleDecl{Value: v, Important: true}
			orig.Styles[prop] = e.Inline[prop]
		}
		apply = append(apply, set)
		undo = append(undo, orig)
	}
	return apply, undo
}

// normalizeConstraints lifts every clipping constraint around the element
// and returns the function that restores the page. The caller must defer
// the restore. On error the page has already been restored.
func normalizeConstraints(ctx context.Context, page pageSurface, id string) (restoreFunc, int, error) {
	styles, err := page.CollectStyles(ctx, id, trackedProperties)
	if err != nil {
		_ = page.ReleaseStyles(ctx)
		return nil, 0, fmt.Errorf("collecting styles: %w", err)
	}

	apply, undo := planNormalization(styles)

	done := false
	restore := func(ctx context.Context) error {
		if done {
			return nil
		}
		done = true
		var errs []error
		if len(undo) > 0 {
			if err := page.ApplyStyles(ctx, undo); err != nil {
				errs = append(errs, fmt.Errorf("restoring styles: %w", err))
			}
		}
		if err := page.ReleaseStyles(ctx); err != nil {
			errs = append(errs, fmt.Errorf("releasing styles: %w", err))
		}
		return errors.Join(errs...)
	}

	if len(apply) > 0 {
		if err := page.ApplyStyles(ctx, apply); err != nil {
			return nil, 0, errors.Join(fmt.Errorf("applying styles: %w", err), restore(ctx))
		}
	}
	return restore, len(apply), nil
}
