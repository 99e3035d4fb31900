package debugui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/orrery/ecs"
	"github.com/plus3/orrery/solar"
	"gonum.org/v1/gonum/spatial/r3"
)

// Body table columns.
const (
	ColumnOrder = iota
	ColumnName
	ColumnKind
	ColumnRadius
	ColumnDistance
	ColumnOverride
)

// BodyRow is one line of the body table.
type BodyRow struct {
	Entity     ecs.EntityId
	Order      int
	Name       string
	Kind       string
	Radius     float64
	Distance   float64 // from the world origin
	Pickable   bool
	Decoration bool
	Overridden bool
}

// BodyTable lists scene bodies with filtering, sorting and paging. Selection
// is kept by name so it survives the entity moving between archetypes.
type BodyTable struct {
	rows            []BodyRow
	filterText      string
	hideDecorations bool
	sortColumn      int
	sortAscending   bool
	perPage         int
	page            int
	selected        string
}

// NewBodyTable returns a table showing perPage rows at a time, sorted by
// build order.
func NewBodyTable(perPage int) *BodyTable {
	return &BodyTable{
		sortColumn:      ColumnOrder,
		sortAscending:   true,
		perPage:         max(perPage, 1),
		hideDecorations: true,
	}
}

// SetBodies replaces the rows from a snapshot.
func (t *BodyTable) SetBodies(bodies []solar.BodyState) {
	t.rows = t.rows[:0]
	for _, b := range bodies {
		t.rows = append(t.rows, BodyRow{
			Entity:     b.Entity,
			Order:      b.Order,
			Name:       b.Name,
			Kind:       b.Kind.String(),
			Radius:     b.Radius,
			Distance:   r3.Norm(b.Position),
			Pickable:   b.Pickable,
			Decoration: b.Decoration,
			Overridden: b.Overridden,
		})
	}
	t.sortRows()
}

// SetFilter filters rows by a case-insensitive substring of name or kind.
func (t *BodyTable) SetFilter(text string) {
	if text != t.filterText {
		t.page = 0
	}
	t.filterText = text
}

// ShowDecorations toggles whether stars and asteroids are listed.
func (t *BodyTable) ShowDecorations(show bool) {
	t.hideDecorations = !show
	t.page = 0
}

// SortBy orders rows by one of the Column constants.
func (t *BodyTable) SortBy(column int, ascending bool) {
	t.sortColumn = column
	t.sortAscending = ascending
	t.sortRows()
}

func (t *BodyTable) sortRows() {
	slices.SortStableFunc(t.rows, func(a, b BodyRow) int {
		var c int
		switch t.sortColumn {
		case ColumnName:
			c = strings.Compare(a.Name, b.Name)
		case ColumnKind:
			c = strings.Compare(a.Kind, b.Kind)
		case ColumnRadius:
			c = cmp.Compare(a.Radius, b.Radius)
		case ColumnDistance:
			c = cmp.Compare(a.Distance, b.Distance)
		case ColumnOverride:
			c = cmp.Compare(boolRank(a.Overridden), boolRank(b.Overridden))
		}
		if c == 0 {
			c = cmp.Compare(a.Order, b.Order)
		}
		if !t.sortAscending {
			return -c
		}
		return c
	})
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Filtered returns the rows that pass the current filter, in sort order.
func (t *BodyTable) Filtered() []BodyRow {
	filter := strings.ToLower(t.filterText)
	filtered := make([]BodyRow, 0, len(t.rows))
	for _, row := range t.rows {
		if t.hideDecorations && row.Decoration {
			continue
		}
		if filter != "" &&
			!strings.Contains(strings.ToLower(row.Name), filter) &&
			!strings.Contains(row.Kind, filter) {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered
}

// Page returns the visible rows along with the zero-based page index and the
// page count. The page index is clamped to the filtered rows.
func (t *BodyTable) Page() ([]BodyRow, int, int) {
	filtered := t.Filtered()
	pages := max((len(filtered)+t.perPage-1)/t.perPage, 1)
	t.page = min(max(t.page, 0), pages-1)

	start := t.page * t.perPage
	end := min(start+t.perPage, len(filtered))
	return filtered[start:end], t.page, pages
}

// NextPage and PrevPage move through the filtered rows.
func (t *BodyTable) NextPage() { t.page++ }
func (t *BodyTable) PrevPage() { t.page = max(t.page-1, 0) }

// Select marks a body by name.
func (t *BodyTable) Select(name string) { t.selected = name }

// Selected returns the selected row if it is still present.
func (t *BodyTable) Selected() (BodyRow, bool) {
	for _, row := range t.rows {
		if t.selected != "" && row.Name == t.selected {
			return row, true
		}
	}
	return BodyRow{}, false
}

// Render draws the filter controls, table and pager.
func (t *BodyTable) Render() {
	filter := t.filterText
	if imgui.InputTextWithHint("##bodysearch", "Search...", &filter, imgui.InputTextFlagsNone, nil) {
		t.SetFilter(filter)
	}
	imgui.SameLine()
	if imgui.Button("Clear Filter") {
		t.SetFilter("")
	}
	imgui.SameLine()
	show := !t.hideDecorations
	if imgui.Checkbox("Decorations", &show) {
		t.ShowDecorations(show)
	}

	rows, page, pages := t.Page()

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("BodyTable", 6, tableFlags, imgui.NewVec2(0, 240), 0) {
		imgui.TableSetupColumn("#")
		imgui.TableSetupColumn("Name")
		imgui.TableSetupColumn("Kind")
		imgui.TableSetupColumn("Radius")
		imgui.TableSetupColumn("Distance")
		imgui.TableSetupColumn("Override")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			t.SortBy(int(spec.ColumnIndex()), spec.SortDirection() == imgui.SortDirectionAscending)
			sortSpecs.SetSpecsDirty(false)
		}

		for _, row := range rows {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			if imgui.SelectableBoolV(fmt.Sprintf("%d", row.Order), row.Name == t.selected, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				t.Select(row.Name)
			}

			imgui.TableNextColumn()
			imgui.Text(row.Name)
			imgui.TableNextColumn()
			imgui.Text(row.Kind)
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%.1f", row.Radius))
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%.0f", row.Distance))
			imgui.TableNextColumn()
			if row.Overridden {
				imgui.Text("yes")
			}
		}

		imgui.EndTable()
	}

	if pages > 1 {
		imgui.Text(fmt.Sprintf("Page %d / %d (%d bodies)", page+1, pages, len(t.Filtered())))
		imgui.SameLine()
		if imgui.Button("Prev") {
			t.PrevPage()
		}
		imgui.SameLine()
		if imgui.Button("Next") {
			t.NextPage()
		}
	} else {
		imgui.Text(fmt.Sprintf("Total: %d bodies", len(rows)))
	}
}
