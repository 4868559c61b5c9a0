package rowbase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/syssam/rowbase/compile"
	"github.com/syssam/rowbase/entity"
	"github.com/syssam/rowbase/index"
	"github.com/syssam/rowbase/kernel"
	"github.com/syssam/rowbase/query"
	"github.com/syssam/rowbase/rowtable"
)

// compiledMethod is one repository method's setup-time output: the
// CompiledQuery it resolved to, and which table it runs against. A
// Client's queries slice is indexed by queryId exactly as a generated
// façade would index its own method table.
type compiledMethod struct {
	tableName string
	methodID  string
	cq        *compile.CompiledQuery
}

// Client wires registered entity tables to the compiled queries that run
// against them. It plays the role the teacher's generated Client plays
// for its SQL dialect: one long-lived handle a caller holds, configured
// once through functional options, that every repository call goes
// through.
type Client struct {
	config *Config

	mu       sync.RWMutex
	registry *kernel.Registry
	tables   map[string]*kernel.Table
	queries  []compiledMethod
}

// NewClient builds a Client from opts. It logs nothing itself; the
// configured Logger (log.Println by default) is used by RegisterTable.
func NewClient(opts ...Option) (*Client, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &Client{
		config:   cfg,
		registry: kernel.NewRegistry(),
		tables:   make(map[string]*kernel.Table),
	}, nil
}

// RegisterTable creates the storage and index structures for desc and
// makes it reachable by name from RegisterQuery/Execute/Save/FindByID/
// DeleteByID. desc must already have been through Descriptor.Finalize.
// construct builds a zero-value instance of the caller's entity type for
// Materializer to populate.
func (c *Client) RegisterTable(desc *entity.Descriptor, construct func() any, converters map[string]entity.Converter) error {
	if !c.config.EnablePrefixIndex || !c.config.EnableSuffixIndex {
		for _, fd := range desc.Fields {
			if !c.config.EnablePrefixIndex && fd.IndexKind == entity.IndexPrefix {
				fd.IndexKind = entity.IndexNone
			}
			if !c.config.EnableSuffixIndex && fd.IndexKind == entity.IndexSuffix {
				fd.IndexKind = entity.IndexNone
			}
		}
	}

	tbl, err := kernel.NewTable(desc, kernel.TableOptions{
		PageSize:              c.config.PageSize,
		MaxPages:              c.config.MaxPages,
		InitialPages:          c.config.InitialPages,
		Construct:             construct,
		Converters:            converters,
		Cache:                 c.config.Cache,
		EnableParallelSorting: c.config.EnableParallelSorting,
		ParallelSortThreshold: c.config.ParallelSortThreshold,
	})
	if err != nil {
		return c.translateErr(desc.Name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.registry.Register(tbl)
	c.tables[desc.Name] = tbl
	c.config.Logger("rowbase: registered table", desc.Name)
	return nil
}

// looksLikeJPQL distinguishes a restricted JPQL-like query string (begins
// with one of its three statement keywords) from a derived repository
// method name.
func looksLikeJPQL(s string) bool {
	upper := strings.ToUpper(strings.TrimSpace(s))
	return strings.HasPrefix(upper, "SELECT") || strings.HasPrefix(upper, "UPDATE") || strings.HasPrefix(upper, "DELETE")
}

// RegisterQuery compiles methodNameOrJPQL once against entityName's
// descriptor and returns the queryId a generated façade would hand to
// Execute on every call. paramNames is only consulted for JPQL named
// parameters; pass nil for a derived method name.
func (c *Client) RegisterQuery(entityName, methodID, methodNameOrJPQL string, paramNames []string) (int, error) {
	c.mu.RLock()
	tbl := c.tables[entityName]
	c.mu.RUnlock()
	if tbl == nil {
		return 0, NewMissingEntityError(entityName, nil)
	}

	var lq *query.LogicalQuery
	var err error
	if looksLikeJPQL(methodNameOrJPQL) {
		lq, err = query.ParseJPQL(methodNameOrJPQL)
	} else {
		lq, err = query.ParseMethodName(methodNameOrJPQL)
	}
	if err != nil {
		return 0, NewBadInputError(methodID, err.Error())
	}

	cq, err := compile.Compile(lq, tbl.Descriptor(), paramNames)
	if err != nil {
		return 0, NewBadInputError(methodID, err.Error())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, compiledMethod{tableName: entityName, methodID: methodID, cq: cq})
	return len(c.queries) - 1, nil
}

// Execute runs the query registered under queryId with args, exactly as
// a generated façade's kernel.executeN would. The returned value's
// concrete type depends on the query's prefix: []any for FindBy, int64
// for CountBy, bool for ExistsBy, []kernel.GroupCount for any query with
// a GROUP BY, or int64 (rows affected) for an UPDATE/DeleteBy.
func (c *Client) Execute(ctx context.Context, queryId int, args ...any) (any, error) {
	c.mu.RLock()
	if queryId < 0 || queryId >= len(c.queries) {
		c.mu.RUnlock()
		return nil, NewBadInputError("Execute", fmt.Sprintf("unknown queryId %d", queryId))
	}
	qm := c.queries[queryId]
	tbl := c.tables[qm.tableName]
	c.mu.RUnlock()

	if len(args) < qm.cq.Arity {
		return nil, NewBadInputError(qm.methodID, fmt.Sprintf("expected %d arguments, got %d", qm.cq.Arity, len(args)))
	}

	out, err := tbl.Execute(ctx, qm.methodID, qm.cq, args, c.registry)
	if err != nil {
		return nil, c.translateErr(qm.tableName, err)
	}
	return out, nil
}

// Save inserts or updates value in entityName's table, returning the
// (possibly freshly generated) primary key.
func (c *Client) Save(entityName string, value any) (any, error) {
	tbl, err := c.tableNamed(entityName)
	if err != nil {
		return nil, err
	}
	key, err := tbl.Save(value)
	if err != nil {
		return nil, c.translateErr(entityName, err)
	}
	return key, nil
}

// FindByID looks up and materializes the row keyed by key.
func (c *Client) FindByID(entityName string, key any) (any, bool, error) {
	tbl, err := c.tableNamed(entityName)
	if err != nil {
		return nil, false, err
	}
	value, ok := tbl.FindByID(key)
	return value, ok, nil
}

// DeleteByID removes the row keyed by key and reports whether anything
// was deleted.
func (c *Client) DeleteByID(entityName string, key any) (bool, error) {
	tbl, err := c.tableNamed(entityName)
	if err != nil {
		return false, err
	}
	deleted, err := tbl.DeleteByID(key)
	if err != nil {
		return false, c.translateErr(entityName, err)
	}
	return deleted, nil
}

func (c *Client) tableNamed(entityName string) (*kernel.Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tbl := c.tables[entityName]
	if tbl == nil {
		return nil, NewMissingEntityError(entityName, nil)
	}
	return tbl, nil
}

// translateErr maps the storage/index layer's plain errors onto this
// package's typed errors, the same boundary the teacher's generated
// clients draw between a driver's *sql.Error and ent's own typed
// errors.
func (c *Client) translateErr(entityName string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, rowtable.ErrTableFull) {
		return NewTableFullError(entityName, c.config.MaxPages)
	}
	var dup *index.ErrDuplicateKey
	if errors.As(err, &dup) {
		return NewDuplicateIDError(entityName, dup.Key)
	}
	var notFound *index.ErrKeyNotFound
	if errors.As(err, &notFound) {
		return NewMissingEntityError(entityName, notFound.Key)
	}
	return err
}
