package dartlite

import (
	"testing"

	"dartbridge/internal/engine/ast"
)

func parseSource(t *testing.T, src string) *ast.CompilationUnit {
	t.Helper()
	unit := Parse("lib/test.dart", []byte(src))
	for _, d := range unit.Diagnostics {
		t.Logf("diagnostic: %s (line %d)", d.Message, d.Pos.Line)
	}
	return unit
}

func TestParseDirectives(t *testing.T) {
	unit := parseSource(t, `
library app.main;

import 'dart:async';
import 'package:flutter/material.dart';
import 'models/user.dart' as models show User, Account;
import 'heavy.dart' deferred as heavy;
export 'widgets/button.dart';
`)
	if unit.LibraryName != "app.main" {
		t.Errorf("library name: %q", unit.LibraryName)
	}
	if len(unit.Directives) != 5 {
		t.Fatalf("expected 5 directives, got %d", len(unit.Directives))
	}
	d := unit.Directives[2]
	if d.URI != "models/user.dart" || d.Prefix != "models" || len(d.Shown) != 2 {
		t.Errorf("prefixed import misparsed: %+v", d)
	}
	if !unit.Directives[3].Deferred || unit.Directives[3].Prefix != "heavy" {
		t.Errorf("deferred import misparsed: %+v", unit.Directives[3])
	}
	if unit.Directives[4].Kind != ast.DirectiveExport {
		t.Errorf("export misparsed: %+v", unit.Directives[4])
	}
}

func TestParseClassShell(t *testing.T) {
	unit := parseSource(t, `
abstract class Repo<T extends Object> extends Base with Logging, Caching implements Store {
  final String name;
  static const int version = 2;
  late Timer timer;

  Repo({required this.name});

  void save(T item) {}
  String get label => name;
}
`)
	if len(unit.Classes) != 1 {
		t.Fatalf("expected 1 class, got %d", len(unit.Classes))
	}
	c := unit.Classes[0]
	if !c.Abstract || c.Name != "Repo" {
		t.Errorf("header misparsed: %+v", c)
	}
	if len(c.TypeParams) != 1 || c.TypeParams[0] != "T" {
		t.Errorf("type params: %v", c.TypeParams)
	}
	if c.Supertype == nil || c.Supertype.Name != "Base" {
		t.Errorf("supertype: %+v", c.Supertype)
	}
	if len(c.Mixins) != 2 || c.Mixins[1].Name != "Caching" {
		t.Errorf("mixins: %+v", c.Mixins)
	}
	if len(c.Interfaces) != 1 || c.Interfaces[0].Name != "Store" {
		t.Errorf("interfaces: %+v", c.Interfaces)
	}

	if len(c.Fields) != 3 {
		t.Fatalf("expected 3 fields, got %d: %+v", len(c.Fields), c.Fields)
	}
	if !c.Fields[0].Final || c.Fields[0].Type.Name != "String" {
		t.Errorf("field name: %+v", c.Fields[0])
	}
	if !c.Fields[1].Static || !c.Fields[1].Const || c.Fields[1].Initializer == nil {
		t.Errorf("field version: %+v", c.Fields[1])
	}
	if !c.Fields[2].Late {
		t.Errorf("field timer: %+v", c.Fields[2])
	}

	if len(c.Constructors) != 1 {
		t.Fatalf("expected 1 constructor, got %d", len(c.Constructors))
	}
	ctor := c.Constructors[0]
	if len(ctor.Params) != 1 || !ctor.Params[0].IsThisField || !ctor.Params[0].Required || !ctor.Params[0].Named {
		t.Errorf("constructor params: %+v", ctor.Params[0])
	}

	if len(c.Methods) != 2 {
		t.Fatalf("expected 2 methods, got %d", len(c.Methods))
	}
	if c.Methods[0].Name != "save" || c.Methods[0].ReturnType.Name != "void" {
		t.Errorf("method save: %+v", c.Methods[0])
	}
	if !c.Methods[1].Getter || c.Methods[1].Body.Kind != ast.BodyExpression {
		t.Errorf("getter label: %+v", c.Methods[1])
	}
}

func TestParseWidgetPair(t *testing.T) {
	unit := parseSource(t, `
import 'package:flutter/material.dart';

class Counter extends StatefulWidget {
  const Counter({super.key, required this.start});
  final int start;

  @override
  State<Counter> createState() => _CounterState();
}

class _CounterState extends State<Counter> {
  int count = 0;
  late final ScrollController scrollController;

  @override
  void initState() {
    super.initState();
    scrollController = ScrollController();
    count = widget.start;
  }

  @override
  void dispose() {
    scrollController.dispose();
    super.dispose();
  }

  @override
  Widget build(BuildContext context) {
    return Scaffold(
      body: Column(
        children: [
          Text('count: $count'),
          if (count > 0) const Icon(Icons.add),
        ],
      ),
    );
  }
}
`)
	if len(unit.Classes) != 2 {
		t.Fatalf("expected 2 classes, got %d", len(unit.Classes))
	}

	widget := unit.Classes[0]
	if widget.Supertype == nil || widget.Supertype.Name != "StatefulWidget" {
		t.Fatalf("widget supertype: %+v", widget.Supertype)
	}
	var createState *ast.MethodDecl
	for _, m := range widget.Methods {
		if m.Name == "createState" {
			createState = m
		}
	}
	if createState == nil || createState.Body.Kind != ast.BodyExpression {
		t.Fatal("createState missing or not an expression body")
	}
	if _, ok := createState.Body.Expr.(*ast.InstanceCreation); !ok {
		t.Errorf("createState body is %T, want instance creation", createState.Body.Expr)
	}

	state := unit.Classes[1]
	if state.Supertype == nil || state.Supertype.Name != "State" ||
		len(state.Supertype.Args) != 1 || state.Supertype.Args[0].Name != "Counter" {
		t.Fatalf("state supertype: %+v", state.Supertype)
	}

	var build *ast.MethodDecl
	for _, m := range state.Methods {
		if m.Name == "build" {
			build = m
		}
	}
	if build == nil || build.Body.Kind != ast.BodyBlock || len(build.Body.Block) != 1 {
		t.Fatalf("build body misparsed: %+v", build)
	}
	ret, ok := build.Body.Block[0].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("build statement is %T", build.Body.Block[0])
	}
	scaffold, ok := ret.Value.(*ast.InstanceCreation)
	if !ok || scaffold.Type.Name != "Scaffold" {
		t.Fatalf("returned expression is %T", ret.Value)
	}
	if len(scaffold.Args) != 1 || scaffold.Args[0].Name != "body" {
		t.Fatalf("scaffold args: %+v", scaffold.Args)
	}
	column, ok := scaffold.Args[0].Value.(*ast.InstanceCreation)
	if !ok || column.Type.Name != "Column" {
		t.Fatalf("body arg is %T", scaffold.Args[0].Value)
	}
	children, ok := column.Args[0].Value.(*ast.ListLiteral)
	if !ok || len(children.Elements) != 2 {
		t.Fatalf("children misparsed: %+v", column.Args[0].Value)
	}
}

func TestParseStatements(t *testing.T) {
	unit := parseSource(t, `
class Svc {
  Future<void> run(List<int> xs) async {
    final total = 0;
    int other = 1;
    for (var i = 0; i < 10; i++) {
      other += i;
    }
    for (final x in xs) {
      print(x);
    }
    while (other > 0) {
      other--;
    }
    switch (other) {
      case 0:
        return;
      default:
        break;
    }
    try {
      await load();
    } on TimeoutException catch (e) {
      print(e);
    } finally {
      close();
    }
    if (total == 0) {
      return;
    } else {
      print('done');
    }
  }
}
`)
	if len(unit.Classes) != 1 || len(unit.Classes[0].Methods) != 1 {
		t.Fatalf("shape misparsed: %+v", unit.Classes)
	}
	m := unit.Classes[0].Methods[0]
	if !m.Async {
		t.Error("async modifier lost")
	}
	stmts := m.Body.Block
	if len(stmts) != 8 {
		t.Fatalf("expected 8 statements, got %d", len(stmts))
	}

	if v, ok := stmts[0].(*ast.VarDeclStmt); !ok || !v.Final || v.Name != "total" {
		t.Errorf("stmt 0: %#v", stmts[0])
	}
	if v, ok := stmts[1].(*ast.VarDeclStmt); !ok || v.Type == nil || v.Type.Name != "int" {
		t.Errorf("stmt 1: %#v", stmts[1])
	}
	if _, ok := stmts[2].(*ast.ForStmt); !ok {
		t.Errorf("stmt 2: %#v", stmts[2])
	}
	if fe, ok := stmts[3].(*ast.ForEachStmt); !ok || fe.Var != "x" {
		t.Errorf("stmt 3: %#v", stmts[3])
	}
	if _, ok := stmts[4].(*ast.WhileStmt); !ok {
		t.Errorf("stmt 4: %#v", stmts[4])
	}
	sw, ok := stmts[5].(*ast.SwitchStmt)
	if !ok || len(sw.Cases) != 2 || sw.Cases[1].Value != nil {
		t.Errorf("stmt 5: %#v", stmts[5])
	}
	tr, ok := stmts[6].(*ast.TryStmt)
	if !ok || len(tr.Catches) != 1 || tr.Catches[0].Variable != "e" || len(tr.Finally) != 1 {
		t.Errorf("stmt 6: %#v", stmts[6])
	}
	iff, ok := stmts[7].(*ast.IfStmt)
	if !ok || iff.Else == nil {
		t.Errorf("stmt 7: %#v", stmts[7])
	}
}

func TestParseExpressions(t *testing.T) {
	unit := parseSource(t, `
int pick(bool flag, int a, int b) {
  final r = flag ? a : b;
  final s = a ?? b;
  final t = 'value: ${a + b} end';
  final u = [1, 2, 3];
  final v = {'k': 1};
  final w = list.map((e) => e * 2).toList();
  return r + s;
}
`)
	if len(unit.Functions) != 1 {
		t.Fatalf("expected 1 top-level function, got %d", len(unit.Functions))
	}
	stmts := unit.Functions[0].Body.Block
	if len(stmts) != 7 {
		t.Fatalf("expected 7 statements, got %d", len(stmts))
	}

	if _, ok := stmts[0].(*ast.VarDeclStmt).Initializer.(*ast.Conditional); !ok {
		t.Errorf("conditional: %#v", stmts[0].(*ast.VarDeclStmt).Initializer)
	}
	if b, ok := stmts[1].(*ast.VarDeclStmt).Initializer.(*ast.Binary); !ok || b.Op != "??" {
		t.Errorf("null coalesce: %#v", stmts[1].(*ast.VarDeclStmt).Initializer)
	}
	tmpl, ok := stmts[2].(*ast.VarDeclStmt).Initializer.(*ast.StringTemplate)
	if !ok || len(tmpl.Parts) != 3 {
		t.Fatalf("string template: %#v", stmts[2].(*ast.VarDeclStmt).Initializer)
	}
	if _, ok := tmpl.Parts[1].(*ast.Binary); !ok {
		t.Errorf("interpolated expression: %#v", tmpl.Parts[1])
	}
	if l, ok := stmts[3].(*ast.VarDeclStmt).Initializer.(*ast.ListLiteral); !ok || len(l.Elements) != 3 {
		t.Errorf("list literal: %#v", stmts[3].(*ast.VarDeclStmt).Initializer)
	}
	if m, ok := stmts[4].(*ast.VarDeclStmt).Initializer.(*ast.MapLiteral); !ok || len(m.Entries) != 1 {
		t.Errorf("map literal: %#v", stmts[4].(*ast.VarDeclStmt).Initializer)
	}

	chain, ok := stmts[5].(*ast.VarDeclStmt).Initializer.(*ast.Call)
	if !ok || chain.Name != "toList" {
		t.Fatalf("method chain: %#v", stmts[5].(*ast.VarDeclStmt).Initializer)
	}
	mapCall, ok := chain.Target.(*ast.Call)
	if !ok || mapCall.Name != "map" || len(mapCall.Args) != 1 {
		t.Fatalf("map call: %#v", chain.Target)
	}
	if _, ok := mapCall.Args[0].Value.(*ast.FunctionLit); !ok {
		t.Errorf("closure arg: %#v", mapCall.Args[0].Value)
	}
}

func TestParseEnumAndMixin(t *testing.T) {
	unit := parseSource(t, `
enum Status { active, suspended, banned }

mixin Logging {
  void log(String msg) {}
}
`)
	if len(unit.Classes) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(unit.Classes))
	}
	e := unit.Classes[0]
	if !e.IsEnum || len(e.EnumValues) != 3 || e.EnumValues[2] != "banned" {
		t.Errorf("enum: %+v", e)
	}
	m := unit.Classes[1]
	if !m.IsMixin || len(m.Methods) != 1 {
		t.Errorf("mixin: %+v", m)
	}
}

func TestParseBrokenSourceProducesDiagnostics(t *testing.T) {
	unit := Parse("lib/broken.dart", []byte(`
class Incomplete {
  void method( {
}
`))
	if len(unit.Diagnostics) == 0 {
		t.Error("expected diagnostics for broken source")
	}
}

func TestParseChangeNotifierStore(t *testing.T) {
	unit := parseSource(t, `
class CartStore extends ChangeNotifier {
  final List<String> items = [];

  void add(String item) {
    items.add(item);
    notifyListeners();
  }

  void clear() {
    items.clear();
  }
}
`)
	c := unit.Classes[0]
	if c.Supertype == nil || c.Supertype.Name != "ChangeNotifier" {
		t.Fatalf("supertype: %+v", c.Supertype)
	}
	if len(c.Methods) != 2 {
		t.Fatalf("expected 2 methods, got %d", len(c.Methods))
	}
	add := c.Methods[0]
	if len(add.Body.Block) != 2 {
		t.Fatalf("add body: %+v", add.Body.Block)
	}
	call, ok := add.Body.Block[1].(*ast.ExprStmt).Expr.(*ast.Call)
	if !ok || call.Name != "notifyListeners" {
		t.Errorf("notifyListeners call misparsed: %#v", add.Body.Block[1])
	}
}
