package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/trustlogix-labs/atlan-sync/internal/atlan"
	"github.com/trustlogix-labs/atlan-sync/internal/governance"
	"github.com/trustlogix-labs/atlan-sync/internal/restclient"
)

// Writer applies a desired state to catalog entities. All writes funnel
// through the breaker: once it trips, every further write in the run is
// refused without touching the API.
type Writer struct {
	Client  *atlan.Client
	Def     Definition
	Breaker *Breaker

	// OnWrite, when set, observes every attempted write for metrics.
	OnWrite func(kind string, err error)
}

// ApplyAsset writes one asset in fixed order: attributes, then tags,
// then banner. Order matters for a reader watching the asset mid-run;
// the numbers land before the visual state changes.
func (w *Writer) ApplyAsset(ctx context.Context, asset atlan.Asset, desired governance.DesiredState) error {
	if err := w.writeAttributes(ctx, asset.GUID, desired.Attributes); err != nil {
		return fmt.Errorf("asset %s attributes: %w", asset.QualifiedName, err)
	}
	if err := w.reconcileTags(ctx, asset.GUID, desired.Tags); err != nil {
		return fmt.Errorf("asset %s tags: %w", asset.QualifiedName, err)
	}
	if err := w.writeBanner(ctx, asset.TypeName, asset.GUID, asset.Name, asset.QualifiedName, desired.Banner); err != nil {
		return fmt.Errorf("asset %s banner: %w", asset.QualifiedName, err)
	}
	return nil
}

// ApplyDomain writes the aggregated posture onto a data domain entity.
// Domains get attributes and a banner but no classification tags.
func (w *Writer) ApplyDomain(ctx context.Context, domain atlan.Domain, desired governance.DesiredState) error {
	if err := w.writeAttributes(ctx, domain.GUID, desired.Attributes); err != nil {
		return fmt.Errorf("domain %s attributes: %w", domain.Name, err)
	}
	if err := w.writeBanner(ctx, "DataDomain", domain.GUID, domain.Name, domain.QualifiedName, desired.Banner); err != nil {
		return fmt.Errorf("domain %s banner: %w", domain.Name, err)
	}
	return nil
}

func (w *Writer) writeAttributes(ctx context.Context, guid string, attributes map[string]any) error {
	values := make(map[string]any, len(attributes))
	for displayName, value := range attributes {
		internal, ok := w.Def.AttrNames[displayName]
		if !ok {
			return fmt.Errorf("attribute %q missing from definition", displayName)
		}
		values[internal] = value
	}
	return w.guard("attributes", func() error {
		return w.Client.WriteBusinessMetadata(ctx, guid, w.Def.Name, values)
	})
}

// reconcileTags diffs against the live classifications but only inside
// the TLX_ namespace. Tags owned by other tools are never removed.
func (w *Writer) reconcileTags(ctx context.Context, guid string, desired []governance.Tag) error {
	var current []string
	err := w.guard("tags", func() error {
		var err error
		current, err = w.Client.EntityClassifications(ctx, guid)
		return err
	})
	if err != nil {
		return err
	}

	want := make(map[string]struct{}, len(desired))
	for _, tag := range desired {
		want[tag.ID] = struct{}{}
	}
	have := make(map[string]struct{}, len(current))
	for _, name := range current {
		have[name] = struct{}{}
	}

	var add []string
	for _, tag := range desired {
		if _, ok := have[tag.ID]; !ok {
			add = append(add, tag.ID)
		}
	}
	var remove []string
	for _, name := range current {
		if !strings.HasPrefix(name, governance.TagPrefix) {
			continue
		}
		if _, ok := want[name]; !ok {
			remove = append(remove, name)
		}
	}

	// Stale tags go first so the asset never shows two rollups at once.
	for _, name := range remove {
		name := name
		if err := w.guard("tags", func() error {
			return w.Client.RemoveClassification(ctx, guid, name)
		}); err != nil {
			// A tag already gone is a fine outcome for a removal.
			if restclient.IsNotFound(err) {
				continue
			}
			return err
		}
	}
	if len(add) > 0 {
		if err := w.guard("tags", func() error {
			return w.Client.AddClassifications(ctx, guid, add)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeBanner(ctx context.Context, typeName, guid, name, qualifiedName string, banner governance.Banner) error {
	return w.guard("banner", func() error {
		return w.Client.SetAnnouncement(ctx, typeName, guid, name, qualifiedName, atlan.Announcement{
			Type:    banner.Type,
			Title:   banner.Title,
			Message: banner.Message,
		})
	})
}

func (w *Writer) guard(kind string, write func() error) error {
	if w.Breaker.Tripped() {
		return ErrBreakerTripped
	}
	err := write()
	if w.OnWrite != nil {
		w.OnWrite(kind, err)
	}
	if err == nil {
		w.Breaker.Success()
		return nil
	}
	if restclient.IsPermission(err) {
		w.Breaker.Failure()
		if w.Breaker.Tripped() {
			slog.Error("write permission failures exceeded threshold, stopping writes", "kind", kind)
		}
	}
	return err
}
