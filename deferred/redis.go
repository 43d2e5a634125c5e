package deferred

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gomodule/redigo/redis"
	"github.com/sirupsen/logrus"

	"github.com/fioman/promise"
)

// Redis is a cross-process Deferred: producers publish outcomes onto a
// Redis pub/sub channel and every subscribed process delivers them to its
// local waiters. Tickets unknown to a process are ignored there; they
// belong to a waiter elsewhere.
type Redis[T any] struct {
	name      string
	options   *RedisOptions[T]
	redisPool *redis.Pool

	mu      sync.Mutex
	pending map[string]*pendingResult[T]
}

type MarshalFunc[T any] func(T) ([]byte, error)
type UnmarshalFunc[T any] func([]byte, *T) error

type RedisOptions[T any] struct {
	marshal     MarshalFunc[T]
	unmarshal   UnmarshalFunc[T]
	host        string
	password    string
	db          int
	maxIdle     int
	maxActive   int
	idleTimeout time.Duration
	redisPool   *redis.Pool
	logger      *logrus.Logger
}

type RedisOption[T any] func(*RedisOptions[T])

// WithMarshal overrides the value encoder (JSON by default).
func WithMarshal[T any](marshal MarshalFunc[T]) RedisOption[T] {
	return func(o *RedisOptions[T]) {
		o.marshal = marshal
	}
}

// WithUnmarshal overrides the value decoder (JSON by default).
func WithUnmarshal[T any](unmarshal UnmarshalFunc[T]) RedisOption[T] {
	return func(o *RedisOptions[T]) {
		o.unmarshal = unmarshal
	}
}

// WithHost sets the Redis address, host:port.
func WithHost[T any](host string) RedisOption[T] {
	return func(o *RedisOptions[T]) {
		o.host = host
	}
}

// WithPassword sets the AUTH password.
func WithPassword[T any](password string) RedisOption[T] {
	return func(o *RedisOptions[T]) {
		o.password = password
	}
}

// WithDB selects the Redis database.
func WithDB[T any](db int) RedisOption[T] {
	return func(o *RedisOptions[T]) {
		o.db = db
	}
}

// WithPool supplies an existing connection pool instead of dialing one.
func WithPool[T any](pool *redis.Pool) RedisOption[T] {
	return func(o *RedisOptions[T]) {
		o.redisPool = pool
	}
}

// WithPoolOptions tunes the pool the registry dials for itself.
func WithPoolOptions[T any](maxIdle, maxActive int, idleTimeout time.Duration) RedisOption[T] {
	return func(o *RedisOptions[T]) {
		o.maxIdle = maxIdle
		o.maxActive = maxActive
		o.idleTimeout = idleTimeout
	}
}

// WithLogger routes subscription-loop diagnostics somewhere other than the
// standard logrus logger.
func WithLogger[T any](logger *logrus.Logger) RedisOption[T] {
	return func(o *RedisOptions[T]) {
		o.logger = logger
	}
}

func NewRedis[T any](name string, options ...RedisOption[T]) (*Redis[T], error) {
	d := &Redis[T]{
		name: name,
		options: &RedisOptions[T]{
			marshal: func(v T) ([]byte, error) {
				return json.Marshal(v)
			},
			unmarshal: func(b []byte, v *T) error {
				return json.Unmarshal(b, v)
			},
			host:        "localhost:6379",
			maxIdle:     5,
			maxActive:   20,
			idleTimeout: 10 * time.Minute,
			logger:      logrus.StandardLogger(),
		},
		pending: make(map[string]*pendingResult[T]),
	}
	for _, opt := range options {
		opt(d.options)
	}
	if d.options.redisPool == nil {
		d.newPool()
	} else {
		d.redisPool = d.options.redisPool
	}
	d.poll()
	return d, nil
}

func (d *Redis[T]) newPool() {
	d.redisPool = &redis.Pool{
		MaxIdle:     d.options.maxIdle,
		MaxActive:   d.options.maxActive,
		IdleTimeout: d.options.idleTimeout,
		Wait:        true,
		Dial: func() (redis.Conn, error) {
			conn, err := redis.Dial("tcp", d.options.host)
			if err != nil {
				return nil, err
			}
			if d.options.db > 0 {
				if _, err = conn.Do("SELECT", d.options.db); err != nil {
					conn.Close()
					return nil, err
				}
			}
			if d.options.password != "" {
				if _, err := conn.Do("AUTH", d.options.password); err != nil {
					conn.Close()
					return nil, err
				}
			}
			return conn, nil
		},
		TestOnBorrow: func(conn redis.Conn, t time.Time) error {
			_, err := conn.Do("PING")
			return err
		},
	}
}

// poll subscribes to the registry's channel and keeps resubscribing forever
// on connection loss, one second between attempts.
func (d *Redis[T]) poll() {
	log := d.options.logger.WithField("channel", d.name)

	go func() {
		retry.Do(
			func() error {
				conn := d.redisPool.Get()
				defer conn.Close()

				psc := redis.PubSubConn{Conn: conn}
				if err := psc.Subscribe(redis.Args{}.Add(d.name)...); err != nil {
					return err
				}

				for {
					switch n := psc.Receive().(type) {
					case error:
						return n
					case redis.Subscription:
						if n.Count == 0 {
							return errors.New("deferred: unsubscribed")
						}
					case redis.Message:
						d.deliver(n.Data)
					}
				}
			},
			retry.Attempts(0),
			retry.Delay(1*time.Second),
			retry.DelayType(retry.FixedDelay),
			retry.OnRetry(func(_ uint, err error) {
				log.WithError(err).Warn("resubscribing to deferred channel")
			}),
		)
	}()
}

// envelope is the wire format published for a settled ticket.
type envelope struct {
	Ticket string `json:"ticket,omitempty"`
	Error  string `json:"error,omitempty"`
	Value  []byte `json:"value,omitempty"`
}

// deliver routes one published outcome to this process's waiter, if any.
func (d *Redis[T]) deliver(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		d.options.logger.WithField("channel", d.name).
			WithError(err).Warn("dropping undecodable deferred message")
		return
	}

	d.mu.Lock()
	pr, ok := d.pending[env.Ticket]
	if ok {
		delete(d.pending, env.Ticket)
	}
	d.mu.Unlock()

	// another process holds this ticket's waiter
	if !ok {
		return
	}

	if env.Error != "" {
		pr.ch <- promise.Failure[T](errors.New(env.Error))
		return
	}

	var value T
	if err := d.options.unmarshal(env.Value, &value); err != nil {
		pr.ch <- promise.Failure[T](err)
		return
	}
	pr.ch <- promise.Success(value)
}

// Watch returns the promise for ticket in this process, registering it on
// first use.
func (d *Redis[T]) Watch(ticket string) *promise.Promise[T] {
	d.mu.Lock()
	defer d.mu.Unlock()

	if pr, ok := d.pending[ticket]; ok {
		return pr.p
	}
	pr := &pendingResult[T]{
		ch: make(chan promise.Outcome[T], 1),
	}
	pr.p = promise.New(func(report func(promise.Outcome[T])) {
		go func() {
			report(<-pr.ch)
		}()
	})
	d.pending[ticket] = pr
	return pr.p
}

// Resolve publishes value for ticket to every subscribed process.
func (d *Redis[T]) Resolve(ticket string, value T) error {
	valueBytes, err := d.options.marshal(value)
	if err != nil {
		return err
	}
	return d.publish(&envelope{
		Ticket: ticket,
		Value:  valueBytes,
	})
}

// Reject publishes err for ticket to every subscribed process.
func (d *Redis[T]) Reject(ticket string, err error) error {
	return d.publish(&envelope{
		Ticket: ticket,
		Error:  err.Error(),
	})
}

func (d *Redis[T]) publish(env *envelope) error {
	conn := d.redisPool.Get()
	defer conn.Close()

	data, _ := json.Marshal(env)
	_, err := conn.Do("PUBLISH", d.name, data)
	return err
}

// Await watches ticket and blocks for its outcome.
func (d *Redis[T]) Await(ticket string) (T, error) {
	return d.Watch(ticket).Await()
}
