package wire

// QueryRequest asks the server to run one statement. The connection carries
// exactly one request.
type QueryRequest struct {
	ID   uint64 `json:"id"`
	SQL  string `json:"sql"`
	Args []any  `json:"args,omitempty"`
}

// QueryResponse precedes the result. When Error is empty, the encoded
// recordset stream follows the frame and runs until the server closes the
// connection.
type QueryResponse struct {
	ID     uint64 `json:"id"`
	Error  string `json:"error,omitempty"`
	Fields int    `json:"fields,omitempty"`
}
