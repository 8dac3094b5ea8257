package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONRPCRequestSerialization(t *testing.T) {
	req1 := JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      "req-123",
		Method:  "test.method",
		Params:  map[string]interface{}{"key": "value"},
	}

	data1, err := json.Marshal(req1)
	require.NoError(t, err)

	var parsed1 map[string]interface{}
	err = json.Unmarshal(data1, &parsed1)
	require.NoError(t, err)

	assert.Equal(t, "2.0", parsed1["jsonrpc"])
	assert.Equal(t, "req-123", parsed1["id"])
	assert.Equal(t, "test.method", parsed1["method"])
	assert.NotNil(t, parsed1["params"])

	req2 := JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      42,
		Method:  "another.method",
		Params:  []string{"param1", "param2"},
	}

	data2, err := json.Marshal(req2)
	require.NoError(t, err)

	var parsed2 map[string]interface{}
	err = json.Unmarshal(data2, &parsed2)
	require.NoError(t, err)

	assert.Equal(t, float64(42), parsed2["id"])
	assert.Equal(t, "another.method", parsed2["method"])

	req3 := JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      nil,
		Method:  "test.method",
		Params:  nil,
	}

	data3, err := json.Marshal(req3)
	require.NoError(t, err)

	var parsed3 map[string]interface{}
	err = json.Unmarshal(data3, &parsed3)
	require.NoError(t, err)

	assert.Nil(t, parsed3["id"])
	_, hasParams := parsed3["params"]
	assert.False(t, hasParams, "params field should be omitted when nil")
}

func TestJSONRPCResponseSerialization(t *testing.T) {
	resp1 := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      "resp-123",
		Result:  map[string]interface{}{"status": "success"},
	}

	data1, err := json.Marshal(resp1)
	require.NoError(t, err)

	var parsed1 map[string]interface{}
	err = json.Unmarshal(data1, &parsed1)
	require.NoError(t, err)

	assert.NotNil(t, parsed1["result"])
	_, hasError := parsed1["error"]
	assert.False(t, hasError, "error field should be omitted in success response")

	resp2 := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      "err-456",
		Error: &ErrorPayload{
			Code:    ErrorCodeInvalidParams,
			Message: "Invalid parameters",
			Data:    map[string]string{"field": "username"},
		},
	}

	data2, err := json.Marshal(resp2)
	require.NoError(t, err)

	var parsed2 map[string]interface{}
	err = json.Unmarshal(data2, &parsed2)
	require.NoError(t, err)

	_, hasResult := parsed2["result"]
	assert.False(t, hasResult, "result field should be omitted in error response")

	errorObj, hasError := parsed2["error"].(map[string]interface{})
	assert.True(t, hasError, "error field should be present")
	assert.Equal(t, float64(ErrorCodeInvalidParams), errorObj["code"])
	assert.Equal(t, "Invalid parameters", errorObj["message"])
	assert.NotNil(t, errorObj["data"])

	resp3 := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      nil,
		Error: &ErrorPayload{
			Code:    ErrorCodeParseError,
			Message: "Parse error",
		},
	}

	data3, err := json.Marshal(resp3)
	require.NoError(t, err)

	var parsed3 map[string]interface{}
	err = json.Unmarshal(data3, &parsed3)
	require.NoError(t, err)

	assert.Nil(t, parsed3["id"])
	_, hasResult3 := parsed3["result"]
	assert.False(t, hasResult3, "result field should be omitted in error response")
	assert.NotNil(t, parsed3["error"])
}

func TestJSONRPCNotificationSerialization(t *testing.T) {
	notif1 := JSONRPCNotification{
		JSONRPC: "2.0",
		Method:  "system.notify",
		Params:  map[string]interface{}{"event": "update", "data": 42},
	}

	data1, err := json.Marshal(notif1)
	require.NoError(t, err)

	var parsed1 map[string]interface{}
	err = json.Unmarshal(data1, &parsed1)
	require.NoError(t, err)

	assert.Equal(t, "system.notify", parsed1["method"])
	_, hasID1 := parsed1["id"]
	assert.False(t, hasID1, "id field should not be present in notifications")

	notif2 := JSONRPCNotification{
		JSONRPC: "2.0",
		Method:  "heartbeat",
	}

	data2, err := json.Marshal(notif2)
	require.NoError(t, err)

	var parsed2 map[string]interface{}
	err = json.Unmarshal(data2, &parsed2)
	require.NoError(t, err)

	_, hasParams := parsed2["params"]
	assert.False(t, hasParams, "params field should be omitted when nil")
}

func TestJSONRPCHelperFunctions(t *testing.T) {
	successResp := NewSuccessResponse("req-id", map[string]string{"status": "ok"})
	assert.Equal(t, "2.0", successResp.JSONRPC)
	assert.Equal(t, "req-id", successResp.ID)
	assert.NotNil(t, successResp.Result)
	assert.Nil(t, successResp.Error)

	errorResp := NewErrorResponse("err-id", ErrorCodeInternalError, "Internal error", nil)
	assert.Equal(t, "err-id", errorResp.ID)
	assert.Nil(t, errorResp.Result)
	require.NotNil(t, errorResp.Error)
	assert.Equal(t, ErrorCodeInternalError, errorResp.Error.Code)
	assert.Equal(t, "Internal error", errorResp.Error.Message)

	notif := NewNotification("test.event", map[string]bool{"success": true})
	assert.Equal(t, "test.event", notif.Method)
	assert.NotNil(t, notif.Params)
}

func TestUnmarshalPayload(t *testing.T) {
	type TestStruct struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}

	sourceData := map[string]interface{}{
		"name":  "test",
		"value": 42,
	}

	var target TestStruct
	err := UnmarshalPayload(sourceData, &target)
	require.NoError(t, err)
	assert.Equal(t, "test", target.Name)
	assert.Equal(t, 42, target.Value)

	// A nil payload is a no-op: many requests (ping, tools/list with no
	// cursor) carry no params at all.
	var target2 TestStruct
	err = UnmarshalPayload(nil, &target2)
	assert.NoError(t, err)

	sourceData3 := map[string]interface{}{
		"name":  "test",
		"value": "not-a-number",
	}

	var target3 TestStruct
	err = UnmarshalPayload(sourceData3, &target3)
	assert.Error(t, err)
}

func TestJSONRPCRequestDeserialization(t *testing.T) {
	reqJSON := `{
		"jsonrpc": "2.0",
		"id": "req-789",
		"method": "example.method",
		"params": {"foo": "bar", "baz": 123}
	}`

	var req JSONRPCRequest
	err := json.Unmarshal([]byte(reqJSON), &req)
	require.NoError(t, err)

	assert.Equal(t, "2.0", req.JSONRPC)
	assert.Equal(t, "req-789", req.ID)
	assert.Equal(t, "example.method", req.Method)

	params, ok := req.Params.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "bar", params["foo"])
	assert.Equal(t, float64(123), params["baz"])
}
