// Package notion is the document store backed by a Notion database of
// journal entries.
//
// Entry properties used:
//
//	Order References     rich_text     comma separated order references
//	RTPS-OrdersTable-Id  rich_text     id of the generated orders table block
//	RTPS-Actions         multi_select  workflow tags, e.g. refresh-orders
package notion
