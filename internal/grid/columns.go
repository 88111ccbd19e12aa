package grid

import "strings"

// Column keys understood by the sort engine and the table.
const (
	ColumnDivision    = "div"
	ColumnSignature   = "signature"
	ColumnEAN         = "ean"
	ColumnHierarchy   = "hierarchy"
	ColumnName        = "name"
	ColumnUnits       = "units"
	ColumnStockOrigin = "stockOrigin"
	ColumnAllocAccu   = "allocAccu"
	ColumnRemaining   = "remainingQty"

	channelColumnPrefix = "channels."
)

// Column describes one table column. The live table and the export are both
// generated from the same ordered list so they cannot drift apart.
type Column struct {
	Key          string `json:"key"`
	Header       string `json:"header"`
	ExportHeader string `json:"exportHeader"`
	Channel      string `json:"channel,omitempty"`
}

var staticColumns = []Column{
	{Key: ColumnDivision, Header: "Div", ExportHeader: "Division"},
	{Key: ColumnSignature, Header: "Signature", ExportHeader: "Brand"},
	{Key: ColumnEAN, Header: "EAN", ExportHeader: "EAN"},
	{Key: ColumnHierarchy, Header: "Hierarchy", ExportHeader: "Category"},
	{Key: ColumnName, Header: "Name", ExportHeader: "Product Name"},
	{Key: ColumnUnits, Header: "Units", ExportHeader: "Total Units"},
	{Key: ColumnStockOrigin, Header: "Stock origin", ExportHeader: "Stock Origin"},
	{Key: ColumnAllocAccu, Header: "Allocation %", ExportHeader: "Allocation %"},
	{Key: ColumnRemaining, Header: "Remaining Qty", ExportHeader: "Remaining Qty"},
}

// ChannelColumn is the sort key of a channel column.
func ChannelColumn(channel string) string {
	return channelColumnPrefix + channel
}

// ChannelFromColumn extracts the channel id from a "channels.<id>" key.
func ChannelFromColumn(key string) (string, bool) {
	if !strings.HasPrefix(key, channelColumnPrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, channelColumnPrefix), true
}

// TableColumns lists static columns followed by one column per channel, in order.
func TableColumns(channels []string) []Column {
	cols := make([]Column, 0, len(staticColumns)+len(channels))
	cols = append(cols, staticColumns...)
	for _, ch := range channels {
		cols = append(cols, Column{Key: ChannelColumn(ch), Header: ch, ExportHeader: ch, Channel: ch})
	}
	return cols
}

// IsSortableColumn reports whether key names a static column or one of channels.
func IsSortableColumn(key string, channels []string) bool {
	for _, col := range staticColumns {
		if col.Key == key {
			return true
		}
	}
	if ch, ok := ChannelFromColumn(key); ok {
		for _, known := range channels {
			if known == ch {
				return true
			}
		}
	}
	return false
}
