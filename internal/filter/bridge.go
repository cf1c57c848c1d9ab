package filter

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/markconv/markconv/internal/tree"
)

// nodeTypeName is the Lua metatable name for bridged tree nodes.
const nodeTypeName = "markconv.node"

// registerNodeType installs the node metatable and the global `markconv`
// module in a fresh interpreter state. Nodes cross the boundary as userdata
// referencing the host-owned tree; Lua never owns or frees them.
func registerNodeType(L *lua.LState) {
	mt := L.NewTypeMetatable(nodeTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), nodeMethods))

	mod := L.SetFuncs(L.NewTable(), moduleFuncs)
	L.SetGlobal("markconv", mod)
	L.PreloadModule("markconv", func(L *lua.LState) int {
		L.Push(mod)
		return 1
	})
}

var moduleFuncs = map[string]lua.LGFunction{
	"new_node": luaNewNode,
}

var nodeMethods = map[string]lua.LGFunction{
	"kind":     luaKind,
	"set_kind": luaSetKind,

	"literal":     luaLiteral,
	"set_literal": luaSetLiteral,

	"heading_level":     luaHeadingLevel,
	"set_heading_level": luaSetHeadingLevel,

	"url":            luaURL,
	"set_url":        luaSetURL,
	"title":          luaTitle,
	"set_title":      luaSetTitle,
	"fence_info":     luaFenceInfo,
	"set_fence_info": luaSetFenceInfo,

	"list_ordered":     luaListOrdered,
	"set_list_ordered": luaSetListOrdered,
	"list_start":       luaListStart,
	"set_list_start":   luaSetListStart,
	"list_tight":       luaListTight,
	"set_list_tight":   luaSetListTight,

	"first_child": luaFirstChild,
	"last_child":  luaLastChild,
	"next":        luaNext,
	"prev":        luaPrev,
	"parent":      luaParent,
	"child_count": luaChildCount,

	"append_child":  luaAppendChild,
	"prepend_child": luaPrependChild,
	"insert_before": luaInsertBefore,
	"insert_after":  luaInsertAfter,
	"unlink":        luaUnlink,

	"sourcepos":    luaSourcepos,
	"metadata":     luaMetadata,
	"set_metadata": luaSetMetadata,
}

// pushNode pushes a node as userdata, or nil for a nil node.
func pushNode(L *lua.LState, n *tree.Node) {
	if n == nil {
		L.Push(lua.LNil)
		return
	}
	ud := L.NewUserData()
	ud.Value = n
	L.SetMetatable(ud, L.GetTypeMetatable(nodeTypeName))
	L.Push(ud)
}

// checkNode extracts the node behind argument i or raises a Lua error.
func checkNode(L *lua.LState, i int) *tree.Node {
	ud := L.CheckUserData(i)
	if n, ok := ud.Value.(*tree.Node); ok {
		return n
	}
	L.ArgError(i, "node expected")
	return nil
}

func luaNewNode(L *lua.LState) int {
	name := L.CheckString(1)
	kind, ok := tree.KindFromString(name)
	if !ok {
		L.ArgError(1, "unknown node kind "+name)
		return 0
	}
	pushNode(L, tree.NewNode(kind))
	return 1
}

func luaKind(L *lua.LState) int {
	L.Push(lua.LString(checkNode(L, 1).Kind().String()))
	return 1
}

func luaSetKind(L *lua.LState) int {
	n := checkNode(L, 1)
	name := L.CheckString(2)
	kind, ok := tree.KindFromString(name)
	if !ok {
		L.ArgError(2, "unknown node kind "+name)
		return 0
	}
	n.SetKind(kind)
	return 0
}

func luaLiteral(L *lua.LState) int {
	L.Push(lua.LString(checkNode(L, 1).Literal))
	return 1
}

func luaSetLiteral(L *lua.LState) int {
	checkNode(L, 1).Literal = L.CheckString(2)
	return 0
}

func luaHeadingLevel(L *lua.LState) int {
	L.Push(lua.LNumber(checkNode(L, 1).HeadingLevel))
	return 1
}

func luaSetHeadingLevel(L *lua.LState) int {
	checkNode(L, 1).HeadingLevel = L.CheckInt(2)
	return 0
}

func luaURL(L *lua.LState) int {
	L.Push(lua.LString(checkNode(L, 1).Destination))
	return 1
}

func luaSetURL(L *lua.LState) int {
	checkNode(L, 1).Destination = L.CheckString(2)
	return 0
}

func luaTitle(L *lua.LState) int {
	L.Push(lua.LString(checkNode(L, 1).Title))
	return 1
}

func luaSetTitle(L *lua.LState) int {
	checkNode(L, 1).Title = L.CheckString(2)
	return 0
}

func luaFenceInfo(L *lua.LState) int {
	L.Push(lua.LString(checkNode(L, 1).FenceInfo))
	return 1
}

func luaSetFenceInfo(L *lua.LState) int {
	checkNode(L, 1).FenceInfo = L.CheckString(2)
	return 0
}

func luaListOrdered(L *lua.LState) int {
	L.Push(lua.LBool(checkNode(L, 1).ListData.Ordered))
	return 1
}

func luaSetListOrdered(L *lua.LState) int {
	checkNode(L, 1).ListData.Ordered = L.CheckBool(2)
	return 0
}

func luaListStart(L *lua.LState) int {
	L.Push(lua.LNumber(checkNode(L, 1).ListData.Start))
	return 1
}

func luaSetListStart(L *lua.LState) int {
	checkNode(L, 1).ListData.Start = L.CheckInt(2)
	return 0
}

func luaListTight(L *lua.LState) int {
	L.Push(lua.LBool(checkNode(L, 1).ListData.Tight))
	return 1
}

func luaSetListTight(L *lua.LState) int {
	checkNode(L, 1).ListData.Tight = L.CheckBool(2)
	return 0
}

func luaFirstChild(L *lua.LState) int {
	pushNode(L, checkNode(L, 1).FirstChild())
	return 1
}

func luaLastChild(L *lua.LState) int {
	pushNode(L, checkNode(L, 1).LastChild())
	return 1
}

func luaNext(L *lua.LState) int {
	pushNode(L, checkNode(L, 1).Next())
	return 1
}

func luaPrev(L *lua.LState) int {
	pushNode(L, checkNode(L, 1).Prev())
	return 1
}

func luaParent(L *lua.LState) int {
	pushNode(L, checkNode(L, 1).Parent())
	return 1
}

func luaChildCount(L *lua.LState) int {
	L.Push(lua.LNumber(checkNode(L, 1).ChildCount()))
	return 1
}

func luaAppendChild(L *lua.LState) int {
	checkNode(L, 1).AppendChild(checkNode(L, 2))
	return 0
}

func luaPrependChild(L *lua.LState) int {
	checkNode(L, 1).PrependChild(checkNode(L, 2))
	return 0
}

func luaInsertBefore(L *lua.LState) int {
	checkNode(L, 1).InsertBefore(checkNode(L, 2))
	return 0
}

func luaInsertAfter(L *lua.LState) int {
	checkNode(L, 1).InsertAfter(checkNode(L, 2))
	return 0
}

func luaUnlink(L *lua.LState) int {
	checkNode(L, 1).Unlink()
	return 0
}

func luaSourcepos(L *lua.LState) int {
	n := checkNode(L, 1)
	if n.Pos.IsZero() {
		L.Push(lua.LNil)
		return 1
	}
	t := L.NewTable()
	L.SetField(t, "start_line", lua.LNumber(n.Pos.StartLine))
	L.SetField(t, "start_col", lua.LNumber(n.Pos.StartCol))
	L.SetField(t, "end_line", lua.LNumber(n.Pos.EndLine))
	L.SetField(t, "end_col", lua.LNumber(n.Pos.EndCol))
	L.Push(t)
	return 1
}

func luaMetadata(L *lua.LState) int {
	n := checkNode(L, 1)
	if n.Metadata == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(goToLua(L, n.Metadata))
	return 1
}

func luaSetMetadata(L *lua.LState) int {
	n := checkNode(L, 1)
	key := L.CheckString(2)
	value := luaToGo(L.CheckAny(3))
	if n.Metadata == nil {
		n.Metadata = map[string]any{}
	}
	n.Metadata[key] = value
	return 0
}

// goToLua converts decoded YAML values into Lua values.
func goToLua(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(x)
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case uint64:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case string:
		return lua.LString(x)
	case []any:
		t := L.NewTable()
		for _, item := range x {
			t.Append(goToLua(L, item))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		for k, val := range x {
			L.SetField(t, k, goToLua(L, val))
		}
		return t
	default:
		return lua.LString(fmt.Sprintf("%v", x))
	}
}

// luaToGo converts a Lua value into a plain Go value for metadata storage.
func luaToGo(v lua.LValue) any {
	switch x := v.(type) {
	case lua.LBool:
		return bool(x)
	case lua.LNumber:
		return float64(x)
	case lua.LString:
		return string(x)
	case *lua.LTable:
		// Arrays become slices; anything else becomes a string map.
		if x.MaxN() > 0 {
			out := make([]any, 0, x.MaxN())
			for i := 1; i <= x.MaxN(); i++ {
				out = append(out, luaToGo(x.RawGetInt(i)))
			}
			return out
		}
		out := map[string]any{}
		x.ForEach(func(k, val lua.LValue) {
			out[k.String()] = luaToGo(val)
		})
		return out
	default:
		return v.String()
	}
}
