package main

import (
    "context"
    "fmt"
    "math"
    "os"
    "sort"
    "strconv"
    "sync"
    "sync/atomic"
    "time"

    "github.com/d60-Lab/likefeed/config"
    "github.com/d60-Lab/likefeed/internal/cache"
    "github.com/d60-Lab/likefeed/internal/dispatch"
    "github.com/d60-Lab/likefeed/internal/model"
    "github.com/d60-Lab/likefeed/internal/repository"
    "github.com/d60-Lab/likefeed/internal/service"
    "github.com/d60-Lab/likefeed/pkg/database"
)

func must[T any](v T, err error) T { if err != nil { panic(err) }; return v }

func check(err error) { if err != nil { panic(err) } }

func pct(vs []time.Duration, p float64) time.Duration {
    if len(vs) == 0 { return 0 }
    xs := append([]time.Duration(nil), vs...)
    sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
    k := int(math.Ceil(p*float64(len(xs)))) - 1
    if k < 0 { k = 0 }
    if k >= len(xs) { k = len(xs)-1 }
    return xs[k]
}

func avg(vs []time.Duration) time.Duration {
    if len(vs) == 0 { return 0 }
    var sum time.Duration
    for _, d := range vs { sum += d }
    return sum / time.Duration(len(vs))
}

func envInt(name string, def int) int {
    if s := os.Getenv(name); s != "" {
        if v, err := strconv.Atoi(s); err == nil && v > 0 { return v }
    }
    return def
}

// 在线接收端：只计数，不做网络写
type countingChannel struct{ n atomic.Int64 }

func (c *countingChannel) Send([]byte) error { c.n.Add(1); return nil }
func (c *countingChannel) IsOpen() bool      { return true }

func main() {
    cfg := must(config.Load())
    db := must(database.InitDB(cfg))
    defer database.Close(db)

    N := envInt("N", 5000)       // likers
    DUP := envInt("DUP", 2)      // likes per liker (duplicates are no-ops)
    CONC := envInt("CONC", 16)   // concurrent requesters

    // one author post + N likers
    author := model.User{Username: fmt.Sprintf("author-%d", time.Now().UnixNano())}
    check(db.Create(&author).Error)
    post := model.Post{UserID: author.ID, Content: "bench"}
    check(db.Create(&post).Error)
    users := make([]model.User, N)
    for i := range users {
        users[i] = model.User{Username: fmt.Sprintf("%s-u%d", author.Username, i)}
    }
    check(db.CreateInBatches(&users, 500).Error)

    likeRepo := repository.NewLikeRepository(db)
    notifRepo := repository.NewNotificationRepository(db)

    var mu sync.Mutex
    land := make([]time.Duration, 0, N)
    outcomes := map[dispatch.Outcome]int{}
    done := make(chan struct{})
    d := dispatch.New(dispatch.Deps{
        Posts:         repository.NewPostRepository(db),
        Users:         repository.NewUserRepository(db),
        Notifications: notifRepo,
    }, dispatch.WithObserver(func(ev dispatch.Event, o dispatch.Outcome) {
        mu.Lock()
        defer mu.Unlock()
        outcomes[o]++
        land = append(land, time.Since(ev.AcceptedAt))
        if len(land) == N { close(done) }
    }))
    ch := &countingChannel{}
    d.Registry().Bind(author.ID, ch)
    stop := d.Start(context.Background())

    likes := service.NewLikeService(likeRepo, cache.NewLikeCounter(likeRepo, nil, 0), d)

    // requests: every liker DUP times, spread over CONC workers
    jobs := make(chan int64, CONC*2)
    reqCh := make(chan time.Duration, N*DUP)
    var created atomic.Int64
    var wg sync.WaitGroup
    for w := 0; w < CONC; w++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            for uid := range jobs {
                st := time.Now()
                res, err := likes.RecordLike(context.Background(), post.ID, uid)
                if err != nil { panic(err) }
                reqCh <- time.Since(st)
                if res.Created { created.Add(1) }
            }
        }()
    }
    start := time.Now()
    for r := 0; r < DUP; r++ {
        for i := range users { jobs <- users[i].ID }
    }
    close(jobs)
    wg.Wait()
    close(reqCh)
    elapsed := time.Since(start)

    select {
    case <-done:
    case <-time.After(2 * time.Minute):
        fmt.Println("timeout while waiting for dispatch outcomes")
    }
    _ = stop(context.Background())

    reqs := make([]time.Duration, 0, N*DUP)
    for dur := range reqCh { reqs = append(reqs, dur) }

    mu.Lock()
    defer mu.Unlock()
    fmt.Printf("N=%d DUP=%d CONC=%d driver=%s\n", N, DUP, CONC, cfg.Database.Driver)
    fmt.Printf("RecordLike: requests=%d created=%d qps=%.0f avg=%v p95=%v p99=%v\n",
        len(reqs), created.Load(), float64(len(reqs))/elapsed.Seconds(), avg(reqs), pct(reqs, 0.95), pct(reqs, 0.99))
    fmt.Printf("Dispatch landing (accept->terminal): samples=%d avg=%v p95=%v p99=%v\n",
        len(land), avg(land), pct(land, 0.95), pct(land, 0.99))
    fmt.Printf("Outcomes: %v pushed=%d\n", outcomes, ch.n.Load())
}
