package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/redisom/internal/db"
)

// recordingObserver captures command notifications for assertions.
type recordingObserver struct {
	ops  []string
	errs []error
}

func (r *recordingObserver) ObserveCommand(op string, _ time.Duration, err error) {
	r.ops = append(r.ops, op)
	r.errs = append(r.errs, err)
}

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestObserver_Notified(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "k")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	obs := &recordingObserver{}
	s := &Store{client: c, observer: obs}

	_ = s.Ping(context.Background())
	_ = s.Del(context.Background(), "k")

	if len(obs.ops) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(obs.ops))
	}
	if obs.ops[0] != db.OpPing || obs.ops[1] != db.OpDel {
		t.Errorf("unexpected ops: %v", obs.ops)
	}
	if obs.errs[0] != nil {
		t.Errorf("expected nil error for ping, got %v", obs.errs[0])
	}
	if obs.errs[1] == nil {
		t.Error("expected error recorded for del")
	}
}

func TestContainsIgnoreCase(t *testing.T) {
	tests := []struct {
		s, sub string
		want   bool
	}{
		{"Index Already Exists", "index already exists", true},
		{"UNKNOWN INDEX NAME", "unknown index name", true},
		{"hello world", "world", true},
		{"short", "longer than input", false},
		{"exact", "exact", true},
		{"", "", true},
		{"notempty", "", true},
	}
	for _, tc := range tests {
		got := containsIgnoreCase(tc.s, tc.sub)
		if got != tc.want {
			t.Errorf("containsIgnoreCase(%q, %q) = %v, want %v", tc.s, tc.sub, got, tc.want)
		}
	}
}

// --- keys.go tests ---

func TestDel_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "mykey")).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	if err := s.Del(context.Background(), "mykey"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDel_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "mykey")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	err := s.Del(context.Background(), "mykey")
	if err == nil {
		t.Fatal("expected error")
	}
	if !isDBError(err) {
		t.Errorf("expected db.Error, got %T", err)
	}
}

func TestScan_SinglePage(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	// SCAN returns [cursor, [elements...]]
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SCAN"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(0), // cursor=0 means done
			mock.RedisArray(mock.RedisString("key1"), mock.RedisString("key2")),
		)))

	s := NewStoreForTest(c)
	keys, err := s.Scan(context.Background(), "prefix:*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
}

func TestScan_MultiPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	first := true
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SCAN"
		})).
		DoAndReturn(func(_ context.Context, _ rueidis.Completed) rueidis.RedisResult {
			if first {
				first = false
				return mock.Result(mock.RedisArray(
					mock.RedisInt64(42), // cursor=42 means more
					mock.RedisArray(mock.RedisString("key1")),
				))
			}
			return mock.Result(mock.RedisArray(
				mock.RedisInt64(0), // cursor=0 means done
				mock.RedisArray(mock.RedisString("key2")),
			))
		}).Times(2)

	s := NewStoreForTest(c)
	keys, err := s.Scan(context.Background(), "prefix:*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
}

// --- json.go tests ---

func TestJSONSet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "JSON.SET" && cmd[1] == "mykey" && cmd[2] == "$"
		})).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	err := s.JSONSet(context.Background(), "mykey", "$", []byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestJSONSet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "JSON.SET"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	err := s.JSONSet(context.Background(), "mykey", "$", []byte(`{"a":1}`))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestJSONGet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "JSON.GET" && cmd[1] == "mykey"
		})).
		Return(mock.Result(mock.RedisString(`{"a":1}`)))

	s := NewStoreForTest(c)
	data, err := s.JSONGet(context.Background(), "mykey", "$")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Errorf("unexpected data: %s", data)
	}
}

func TestJSONGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "JSON.GET"
		})).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	_, err := s.JSONGet(context.Background(), "mykey", "$")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestJSONGet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "JSON.GET"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.JSONGet(context.Background(), "mykey", "$")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, db.ErrKeyNotFound) {
		t.Error("should not be ErrKeyNotFound for network errors")
	}
}

func TestJSONDel_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("JSON.DEL", "mykey", "$")).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	if err := s.JSONDel(context.Background(), "mykey", "$"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestJSONDel_MissingKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	// JSON.DEL on a missing key reports 0 deletions, not an error.
	c.EXPECT().
		Do(gomock.Any(), mock.Match("JSON.DEL", "absent", "$")).
		Return(mock.Result(mock.RedisInt64(0)))

	s := NewStoreForTest(c)
	if err := s.JSONDel(context.Background(), "absent", "$"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- index.go tests ---

func TestCreateIndex_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var got []string
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			got = cmd
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	idx := &db.IndexDefinition{
		Name:     "user:idx",
		Storage:  db.StorageJSON,
		Prefixes: []string{"user:"},
		Fields: []db.IndexField{
			{Path: "$.email", Alias: "email", Type: db.FieldTag},
		},
	}
	if err := s.CreateIndex(context.Background(), idx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"FT.CREATE", "user:idx", "ON", "JSON", "PREFIX", "1", "user:",
		"SCHEMA", "$.email", "AS", "email", "TAG",
	}
	if len(got) != len(want) {
		t.Fatalf("unexpected args %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("arg %d = %q, want %q (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisError("Index already exists")))

	s := NewStoreForTest(c)
	idx := &db.IndexDefinition{
		Name:   "user:idx",
		Fields: []db.IndexField{{Path: "$.f", Type: db.FieldTag}},
	}
	err := s.CreateIndex(context.Background(), idx)
	if !errors.Is(err, db.ErrIndexExists) {
		t.Errorf("expected ErrIndexExists, got %v", err)
	}
}

func TestCreateIndex_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	idx := &db.IndexDefinition{
		Name:   "user:idx",
		Fields: []db.IndexField{{Path: "$.f", Type: db.FieldTag}},
	}
	err := s.CreateIndex(context.Background(), idx)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestDropIndex_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.DROPINDEX", "user:idx")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	if err := s.DropIndex(context.Background(), "user:idx"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDropIndex_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.DROPINDEX", "user:idx")).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := NewStoreForTest(c)
	err := s.DropIndex(context.Background(), "user:idx")
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestListIndexes_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT._LIST")).
		Return(mock.Result(mock.RedisArray(
			mock.RedisString("user:idx"),
			mock.RedisString("order:idx"),
		)))

	s := NewStoreForTest(c)
	names, err := s.ListIndexes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 2 || names[0] != "user:idx" || names[1] != "order:idx" {
		t.Errorf("unexpected names: %v", names)
	}
}

func TestListIndexes_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT._LIST")).
		Return(mock.Result(mock.RedisArray()))

	s := NewStoreForTest(c)
	names, err := s.ListIndexes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("expected no names, got %v", names)
	}
}

func TestIndexInfo_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "user:idx")).
		Return(mock.Result(mock.RedisArray(
			mock.RedisString("index_name"), mock.RedisString("user:idx"),
			mock.RedisString("attributes"), mock.RedisArray(
				mock.RedisArray(
					mock.RedisString("identifier"), mock.RedisString("$.email"),
					mock.RedisString("attribute"), mock.RedisString("email"),
					mock.RedisString("type"), mock.RedisString("TAG"),
					mock.RedisString("SORTABLE"),
				),
			),
			mock.RedisString("num_docs"), mock.RedisString("42"),
		)))

	s := NewStoreForTest(c)
	info, err := s.IndexInfo(context.Background(), "user:idx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Name != "user:idx" {
		t.Errorf("unexpected name: %s", info.Name)
	}
	if info.NumDocs != 42 {
		t.Errorf("unexpected num_docs: %d", info.NumDocs)
	}
	if len(info.Attributes) != 1 {
		t.Fatalf("expected 1 attribute, got %d", len(info.Attributes))
	}
	attr := info.Attributes[0]
	if attr.Path != "$.email" || attr.Alias != "email" || attr.Type != "TAG" {
		t.Errorf("unexpected attribute: %+v", attr)
	}
}

func TestIndexInfo_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "user:idx")).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := NewStoreForTest(c)
	_, err := s.IndexInfo(context.Background(), "user:idx")
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestBuildCreateArgs_Validation(t *testing.T) {
	_, err := buildCreateArgs(&db.IndexDefinition{Name: "", Fields: []db.IndexField{{Path: "$.f", Type: db.FieldTag}}})
	if err == nil {
		t.Error("expected error for empty name")
	}

	_, err = buildCreateArgs(&db.IndexDefinition{Name: "test"})
	if err == nil {
		t.Error("expected error for empty fields")
	}
}

func TestBuildCreateArgs_DefaultStorage(t *testing.T) {
	args, err := buildCreateArgs(&db.IndexDefinition{
		Name:   "test",
		Fields: []db.IndexField{{Path: "$.f", Type: db.FieldTag}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertContains(t, args, "JSON")
}

func TestBuildFieldArgs_AllTypes(t *testing.T) {
	tests := []struct {
		name  string
		field db.IndexField
		want  string
	}{
		{"tag", db.IndexField{Path: "$.f", Type: db.FieldTag}, "TAG"},
		{"numeric", db.IndexField{Path: "$.f", Type: db.FieldNumeric}, "NUMERIC"},
		{"text", db.IndexField{Path: "$.f", Type: db.FieldText}, "TEXT"},
		{"geo", db.IndexField{Path: "$.f", Type: db.FieldGeo}, "GEO"},
		{"tag_with_separator", db.IndexField{Path: "$.f", Type: db.FieldTag, Separator: "|"}, "SEPARATOR"},
		{"tag_case_sensitive", db.IndexField{Path: "$.f", Type: db.FieldTag, CaseSensitive: true}, "CASESENSITIVE"},
		{"sortable_numeric", db.IndexField{Path: "$.f", Type: db.FieldNumeric, Sortable: true}, "SORTABLE"},
		{"vector", db.IndexField{Path: "$.f", Type: db.FieldVector, VectorDim: 128}, "VECTOR"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			args, err := buildFieldArgs(&tc.field)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertContains(t, args, tc.want)
		})
	}
}

func TestBuildFieldArgs_VectorShape(t *testing.T) {
	args, err := buildFieldArgs(&db.IndexField{
		Path: "$.embedding", Alias: "embedding",
		Type: db.FieldVector, VectorDim: 4, VectorMetric: db.DistanceL2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"$.embedding", "AS", "embedding",
		"VECTOR", "FLAT", "6", "TYPE", "FLOAT32", "DIM", "4", "DISTANCE_METRIC", "L2",
	}
	if len(args) != len(want) {
		t.Fatalf("unexpected args %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("arg %d = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestBuildFieldArgs_Errors(t *testing.T) {
	_, err := buildFieldArgs(&db.IndexField{Path: "", Type: db.FieldTag})
	if err == nil {
		t.Error("expected error for empty field path")
	}

	_, err = buildFieldArgs(&db.IndexField{Path: "$.f", Type: db.FieldType(99)})
	if err == nil {
		t.Error("expected error for unknown type")
	}

	_, err = buildFieldArgs(&db.IndexField{Path: "$.f", Type: db.FieldVector, VectorDim: 0})
	if err == nil {
		t.Error("expected error for zero vector dim")
	}
}

func assertContains(t *testing.T, args []string, want string) {
	t.Helper()
	for _, a := range args {
		if a == want {
			return
		}
	}
	t.Errorf("expected %q in args %v", want, args)
}

// --- search.go tests ---

func TestSearch_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" && cmd[1] == "user:idx"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisString("user:1"),
			mock.RedisArray(mock.RedisString("$"), mock.RedisString(`{"id":"1"}`)),
			mock.RedisString("user:2"),
			mock.RedisArray(mock.RedisString("$"), mock.RedisString(`{"id":"2"}`)),
		)))

	s := NewStoreForTest(c)
	res, err := s.Search(context.Background(), &db.SearchQuery{
		Index: "user:idx",
		Query: "*",
		Limit: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 2 {
		t.Fatalf("expected total 2, got %d", res.Total)
	}
	if len(res.Docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(res.Docs))
	}
	if res.Docs[0].Key != "user:1" {
		t.Errorf("unexpected key: %s", res.Docs[0].Key)
	}
	if res.Docs[1].Fields[db.DocRootField] != `{"id":"2"}` {
		t.Errorf("unexpected fields: %v", res.Docs[1].Fields)
	}
}

func TestSearch_CountOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" && hasSubsequence(cmd, "LIMIT", "0", "0")
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(42))))

	s := NewStoreForTest(c)
	res, err := s.Search(context.Background(), &db.SearchQuery{Index: "user:idx", Query: "*"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 42 {
		t.Errorf("expected total 42, got %d", res.Total)
	}
	if len(res.Docs) != 0 {
		t.Errorf("expected no docs, got %d", len(res.Docs))
	}
}

func TestSearch_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.Search(context.Background(), &db.SearchQuery{Index: "user:idx", Query: "*"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !isDBError(err) {
		t.Errorf("expected db.Error, got %T", err)
	}
}

func TestSearch_MalformedReply(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	// Key without a trailing fields array.
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(1),
			mock.RedisString("user:1"),
		)))

	s := NewStoreForTest(c)
	_, err := s.Search(context.Background(), &db.SearchQuery{Index: "user:idx", Query: "*", Limit: 10})
	if err == nil {
		t.Fatal("expected error for malformed reply")
	}
}

func TestSearch_Validation(t *testing.T) {
	s := &Store{}
	ctx := context.Background()

	_, err := s.Search(ctx, &db.SearchQuery{Query: "*"})
	if err == nil {
		t.Error("expected error for empty index name")
	}

	_, err = s.Search(ctx, &db.SearchQuery{Index: "idx"})
	if err == nil {
		t.Error("expected error for empty query")
	}
}

func TestBuildSearchArgs_Full(t *testing.T) {
	args := buildSearchArgs(&db.SearchQuery{
		Index:    "user:idx",
		Query:    "@age:[18 +inf]",
		SortBy:   "age",
		SortDesc: true,
		Offset:   20,
		Limit:    10,
		Params:   []string{"BLOB", "abc"},
		Dialect:  2,
	})
	want := []string{
		"user:idx", "@age:[18 +inf]",
		"SORTBY", "age", "DESC",
		"LIMIT", "20", "10",
		"PARAMS", "2", "BLOB", "abc",
		"DIALECT", "2",
	}
	if len(args) != len(want) {
		t.Fatalf("unexpected args %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("arg %d = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestBuildSearchArgs_Minimal(t *testing.T) {
	args := buildSearchArgs(&db.SearchQuery{Index: "idx", Query: "*", Limit: 10})
	want := []string{"idx", "*", "LIMIT", "0", "10"}
	if len(args) != len(want) {
		t.Fatalf("unexpected args %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("arg %d = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestBuildSearchArgs_SortAscending(t *testing.T) {
	args := buildSearchArgs(&db.SearchQuery{Index: "idx", Query: "*", SortBy: "name", Limit: 5})
	assertContains(t, args, "ASC")
}

func hasSubsequence(cmd []string, seq ...string) bool {
	for i := 0; i+len(seq) <= len(cmd); i++ {
		match := true
		for j := range seq {
			if cmd[i+j] != seq[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// --- helpers ---

// isDBError is a test helper for checking wrapped db.Error.
func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}
