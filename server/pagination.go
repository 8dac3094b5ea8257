package server

import "github.com/modelcontext/refserver/protocol"

// pageSize bounds how many catalog entries a single list response returns.
const pageSize = 50

func paginateTools(items []protocol.Tool, cursor string) ([]protocol.Tool, string, error) {
	offset, err := protocol.DecodeCursor(cursor, len(items))
	if err != nil {
		return nil, "", err
	}
	end, next := protocol.PaginateOffsets(len(items), offset, pageSize)
	return items[offset:end], next, nil
}

func paginateResources(items []protocol.Resource, cursor string) ([]protocol.Resource, string, error) {
	offset, err := protocol.DecodeCursor(cursor, len(items))
	if err != nil {
		return nil, "", err
	}
	end, next := protocol.PaginateOffsets(len(items), offset, pageSize)
	return items[offset:end], next, nil
}

func paginatePrompts(items []protocol.Prompt, cursor string) ([]protocol.Prompt, string, error) {
	offset, err := protocol.DecodeCursor(cursor, len(items))
	if err != nil {
		return nil, "", err
	}
	end, next := protocol.PaginateOffsets(len(items), offset, pageSize)
	return items[offset:end], next, nil
}

func paginateTasks(items []protocol.TaskSnapshot, cursor string) ([]protocol.TaskSnapshot, string, error) {
	offset, err := protocol.DecodeCursor(cursor, len(items))
	if err != nil {
		return nil, "", err
	}
	end, next := protocol.PaginateOffsets(len(items), offset, pageSize)
	return items[offset:end], next, nil
}
