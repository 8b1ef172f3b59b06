package model

// Paging defaults shared by the server and the terminal client.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MinPageSize     = 1
	MaxPageSize     = 200
	DefaultField    = FieldUsername
)

// PageSizes are the page sizes offered by the client.
var PageSizes = []int{20, 50, 100}
