package notion

// Property names on journal entries.
const (
	propOrderReferences = "Order References"
	propTableID         = "RTPS-OrdersTable-Id"
	propActions         = "RTPS-Actions"
)

type richText struct {
	Type      string     `json:"type,omitempty"`
	Text      *textValue `json:"text,omitempty"`
	PlainText string     `json:"plain_text,omitempty"`
}

type textValue struct {
	Content string `json:"content"`
}

type selectOption struct {
	Name string `json:"name"`
}

type property struct {
	RichText    []richText     `json:"rich_text,omitempty"`
	MultiSelect []selectOption `json:"multi_select,omitempty"`
}

type page struct {
	ID         string              `json:"id"`
	Properties map[string]property `json:"properties"`
}

type queryRequest struct {
	Filter      queryFilter `json:"filter"`
	StartCursor string      `json:"start_cursor,omitempty"`
	PageSize    int         `json:"page_size,omitempty"`
}

type queryFilter struct {
	Property    string              `json:"property"`
	MultiSelect multiSelectContains `json:"multi_select"`
}

type multiSelectContains struct {
	Contains string `json:"contains"`
}

type queryResponse struct {
	Results    []page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

type block struct {
	Object   string    `json:"object,omitempty"`
	Type     string    `json:"type"`
	Table    *table    `json:"table,omitempty"`
	TableRow *tableRow `json:"table_row,omitempty"`
}

type table struct {
	TableWidth      int     `json:"table_width"`
	HasColumnHeader bool    `json:"has_column_header"`
	HasRowHeader    bool    `json:"has_row_header"`
	Children        []block `json:"children,omitempty"`
}

type tableRow struct {
	Cells [][]richText `json:"cells"`
}

type appendRequest struct {
	Children []block `json:"children"`
}

type appendResponse struct {
	Results []struct {
		ID string `json:"id"`
	} `json:"results"`
}

// propertyUpdate patches page properties. Empty slices are sent as [] so a
// property can be cleared.
type propertyUpdate struct {
	Properties map[string]any `json:"properties"`
}

func text(content string) []richText {
	return []richText{{Type: "text", Text: &textValue{Content: content}}}
}
