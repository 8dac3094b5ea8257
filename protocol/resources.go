// Package protocol defines the structures and constants for the Model Context Protocol (MCP).
package protocol

// Resource describes a catalog entry: a named content blob identified by URI,
// readable via resources/read and optionally subscribable.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourceTemplate describes a URI template entry, exposed via
// resources/templates/list, that resources/read can resolve dynamically.
type ResourceTemplate struct {
	URITemplate string `json:"uriTemplate"`
	Name        string `json:"name,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourceContents is the body of a single resources/read result item —
// exactly one of Text or Blob is populated, matching the wire union.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

// ListResourcesRequestParams defines parameters for 'resources/list'.
type ListResourcesRequestParams struct {
	Cursor string `json:"cursor,omitempty"`
}

// ListResourcesResult defines the result for 'resources/list'.
type ListResourcesResult struct {
	Resources  []Resource `json:"resources"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// ListResourceTemplatesRequestParams defines parameters for 'resources/templates/list'.
type ListResourceTemplatesRequestParams struct {
	Cursor string `json:"cursor,omitempty"`
}

// ListResourceTemplatesResult defines the result for 'resources/templates/list'.
type ListResourceTemplatesResult struct {
	ResourceTemplates []ResourceTemplate `json:"resourceTemplates"`
	NextCursor        string              `json:"nextCursor,omitempty"`
}

// ReadResourceRequestParams defines parameters for 'resources/read'.
type ReadResourceRequestParams struct {
	URI string `json:"uri"`
}

// ReadResourceResult defines the result for 'resources/read'.
type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents"`
}

// SubscribeResourceParams defines parameters for 'resources/subscribe'.
type SubscribeResourceParams struct {
	URI string `json:"uri"`
}

// SubscribeResourceResult defines the (empty) result for 'resources/subscribe'.
type SubscribeResourceResult struct{}

// UnsubscribeResourceParams defines parameters for 'resources/unsubscribe'.
type UnsubscribeResourceParams struct {
	URI string `json:"uri"`
}

// UnsubscribeResourceResult defines the (empty) result for 'resources/unsubscribe'.
type UnsubscribeResourceResult struct{}

// ResourceUpdatedParams defines parameters for 'notifications/resources/updated'.
type ResourceUpdatedParams struct {
	URI string `json:"uri"`
}
