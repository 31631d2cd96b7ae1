package collection

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/foomo/recordstore/pkg/area"
	"github.com/foomo/recordstore/pkg/config"
	"github.com/foomo/recordstore/pkg/future"
	"github.com/foomo/recordstore/pkg/metrics"
	"github.com/foomo/recordstore/pkg/storage"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Collection persists the records of one named collection in a storage area.
// Records live under "<name>-<id>", the ordered id list under "<name>".
type (
	Collection struct {
		l       *zap.Logger
		name    string
		kind    area.Kind
		config  *config.Config
		newID   func() string
		handle  *storage.Handle
		index   *index
		loaded  *future.Future[[]string]
		writeMu sync.Mutex
		errMu   sync.Mutex
		lastErr error
	}
	Option func(*Collection)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// New creates the collection and starts loading its index. Use Loaded to
// wait for the index; FindAll waits on its own.
func New(l *zap.Logger, areas area.Areas, name string, opts ...Option) (*Collection, error) {
	if name == "" {
		return nil, errors.New("collection name must not be empty")
	}
	inst := &Collection{
		l:     l.Named("collection").With(zap.String("collection", name)),
		name:  name,
		newID: uuid.NewString,
		index: newIndex(),
	}

	for _, opt := range opts {
		opt(inst)
	}

	if inst.kind == "" {
		inst.kind = inst.defaultKind()
	}

	handle, err := storage.NewHandle(inst.l, areas, inst.kind)
	if err != nil {
		return nil, errors.Wrapf(err, "collection %q", name)
	}
	inst.handle = handle
	inst.kind = handle.Kind()
	loaded, resolve, reject := future.New[[]string]()
	inst.loaded = loaded
	handle.Get(name).
		OnSuccess(func(items area.Items) {
			resolve(inst.load(items))
		}).
		OnFailure(func(err error) {
			inst.l.Error("failed to load record index", zap.Error(err))
			reject(err)
		})

	return inst, nil
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithAreaKind(v area.Kind) Option {
	return func(o *Collection) {
		o.kind = v
	}
}

// WithConfig supplies the defaults used instead of config.Default
func WithConfig(v config.Config) Option {
	return func(o *Collection) {
		o.config = &v
	}
}

func WithIDGenerator(v func() string) Option {
	return func(o *Collection) {
		o.newID = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Getter
// ------------------------------------------------------------------------------------------------

func (c *Collection) Name() string {
	return c.name
}

func (c *Collection) Kind() area.Kind {
	return c.kind
}

// Loaded settles once the index has been read from storage
func (c *Collection) Loaded() *future.Future[[]string] {
	return c.loaded
}

// IDs returns a snapshot of the index
func (c *Collection) IDs() []string {
	ids, _ := c.index.snapshot()
	return ids
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Create assigns an id if r has none, writes r and appends its id to the index
func (c *Collection) Create(ctx context.Context, r Record) (ret Attributes, err error) {
	defer c.observe("create", time.Now(), &err)

	if r.GetID() == "" {
		r.SetID(c.newID())
	}
	id := r.GetID()
	if err := validateID(id); err != nil {
		return nil, err
	}
	payload, err := encode(r)
	if err != nil {
		return nil, err
	}
	rep, err := decode(recordKey(c.name, id), payload)
	if err != nil {
		return nil, err
	}

	written := future.Then(c.handle.Set(area.Items{recordKey(c.name, id): payload}), func(struct{}) (Attributes, error) {
		c.index.add(id)
		c.persist()
		return rep, nil
	})
	return written.Wait(ctx)
}

// Find reads the record with the id of r
func (c *Collection) Find(ctx context.Context, r Record) (ret Attributes, err error) {
	defer c.observe("find", time.Now(), &err)

	id := r.GetID()
	if id == "" {
		return nil, ErrMissingID
	}
	key := recordKey(c.name, id)
	items, err := c.handle.Get(key).Wait(ctx)
	if err != nil {
		return nil, err
	}
	payload, ok := items[key]
	if !ok {
		return nil, &NotFoundError{Collection: c.name, ID: id}
	}
	return decode(key, payload)
}

// FindAll waits for the index and reads every indexed record in index order.
// Indexed records missing from storage are skipped.
func (c *Collection) FindAll(ctx context.Context) (ret []Attributes, err error) {
	defer c.observe("findAll", time.Now(), &err)

	if _, err := c.loaded.Wait(ctx); err != nil {
		return nil, &NotLoadedError{Collection: c.name, Err: err}
	}
	keys := c.index.keys(c.name)
	ret = make([]Attributes, 0, len(keys))
	// no keys would read the whole area
	if len(keys) == 0 {
		return ret, nil
	}

	items, err := c.handle.Get(keys...).Wait(ctx)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		payload, ok := items[key]
		if !ok {
			c.l.Warn("indexed record missing from storage", zap.String("key", key))
			metrics.MissingRecordsCounter.WithLabelValues(c.name).Inc()
			continue
		}
		a, err := decode(key, payload)
		if err != nil {
			return nil, err
		}
		ret = append(ret, a)
	}
	return ret, nil
}

// Update writes r and adds its id to the index if it is not tracked yet
func (c *Collection) Update(ctx context.Context, r Record) (ret Attributes, err error) {
	defer c.observe("update", time.Now(), &err)

	id := r.GetID()
	if id == "" {
		return nil, ErrMissingID
	}
	if err := validateID(id); err != nil {
		return nil, err
	}
	payload, err := encode(r)
	if err != nil {
		return nil, err
	}
	rep, err := decode(recordKey(c.name, id), payload)
	if err != nil {
		return nil, err
	}

	written := future.Then(c.handle.Set(area.Items{recordKey(c.name, id): payload}), func(struct{}) (Attributes, error) {
		c.ensureTracked(id)
		return rep, nil
	})
	return written.Wait(ctx)
}

// Destroy removes r from storage and from the index
func (c *Collection) Destroy(ctx context.Context, r Record) (ret Attributes, err error) {
	defer c.observe("destroy", time.Now(), &err)

	id := r.GetID()
	if id == "" {
		return nil, ErrMissingID
	}
	rep, err := Representation(r)
	if err != nil {
		return nil, err
	}

	removed := future.Then(c.handle.Remove(recordKey(c.name, id)), func(struct{}) (Attributes, error) {
		c.index.remove(id)
		c.persist()
		return rep, nil
	})
	return removed.Wait(ctx)
}

// Quota returns the area's quota constants together with QUOTA_BYTES_IN_USE
func (c *Collection) Quota(ctx context.Context) (ret area.Quota, err error) {
	defer c.observe("quota", time.Now(), &err)

	q := c.handle.QuotaObject()
	n, err := c.handle.GetBytesInUse().Wait(ctx)
	if err != nil {
		return nil, err
	}
	q[area.QuotaBytesInUse] = n
	return q, nil
}

// Save writes the index in the background
func (c *Collection) Save() {
	c.persist()
}

// Flush writes the index if it changed since the last write and returns the
// error of that write, or of the last failed background write.
func (c *Collection) Flush(ctx context.Context) error {
	if _, err := c.loaded.Wait(ctx); err != nil {
		return &NotLoadedError{Collection: c.name, Err: err}
	}
	if err := c.write(ctx); err != nil {
		return err
	}
	c.errMu.Lock()
	defer c.errMu.Unlock()
	err := c.lastErr
	c.lastErr = nil
	return err
}

// Close flushes the index
func (c *Collection) Close(ctx context.Context) error {
	return c.Flush(ctx)
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (c *Collection) defaultKind() area.Kind {
	if c.config != nil && c.config.DefaultArea != "" {
		return c.config.DefaultArea
	}
	cfg, err := config.Default()
	if err != nil {
		c.l.Warn("invalid default config, using local area", zap.Error(err))
	}
	return cfg.DefaultArea
}

func (c *Collection) load(items area.Items) []string {
	var raw any
	if v, ok := items[c.name]; ok {
		raw = v
	}
	if c.index.merge(parseIndex(raw)) {
		c.persist()
	}
	ids, _ := c.index.snapshot()
	c.l.Debug("loaded record index", zap.Int("records", len(ids)))
	return ids
}

func (c *Collection) ensureTracked(id string) {
	if !c.index.contains(id) {
		c.index.add(id)
		c.persist()
	}
}

// persist writes the index in the background once it has been loaded
func (c *Collection) persist() {
	go func() {
		<-c.loaded.Done()
		if _, err, _ := c.loaded.Settled(); err != nil {
			c.l.Warn("skipping index write, index was never loaded", zap.Error(err))
			return
		}
		if err := c.write(context.Background()); err != nil {
			c.errMu.Lock()
			c.lastErr = err
			c.errMu.Unlock()
		}
	}()
}

// write stores the latest index snapshot. Writes are serialized and skipped
// when a newer or equal snapshot has been written already.
func (c *Collection) write(ctx context.Context) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	ids, gen := c.index.snapshot()
	if !c.index.dirty(gen) {
		return nil
	}
	if _, err := c.handle.Set(area.Items{c.name: strings.Join(ids, delimiter)}).Wait(ctx); err != nil {
		c.l.Warn("failed to write record index", zap.Error(err))
		metrics.IndexPersistFailedCounter.WithLabelValues(c.name).Inc()
		return err
	}
	c.index.markWritten(gen)
	return nil
}

func (c *Collection) observe(op string, start time.Time, err *error) {
	status := "success"
	if *err != nil {
		status = "error"
	}
	metrics.OperationCounter.WithLabelValues(c.name, op, status).Inc()
	metrics.OperationDuration.WithLabelValues(c.name, op, status).Observe(time.Since(start).Seconds())
}
