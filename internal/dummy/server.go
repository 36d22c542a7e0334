package dummy

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

type ServerConfig struct {
	Port int
}

type ComputeResponse struct {
	N         int64   `json:"n"`
	Factors   []int64 `json:"factors"`
	ReqID     string  `json:"req_id"`
	ElapsedMs float64 `json:"elapsed_ms"`
}

// NewRouter serves the endpoints a sweep can be pointed at:
//
//	/compute?n=&req_id=  CPU-bound prime factorisation of n
//	/slow                1-2s sleep
//	/error               fails 40% of the time
//	/status/{code}       always answers with code
//	/healthz
func NewRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/compute", computeHandler).Methods(http.MethodGet)

	r.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		jitter := time.Duration(rand.Intn(1000)+1000) * time.Millisecond
		time.Sleep(jitter)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Slow response"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/error", func(w http.ResponseWriter, r *http.Request) {
		rnd := rand.Float32()
		if rnd < 0.2 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("500 Internal Server Error"))
		} else if rnd < 0.4 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("429 Too Many Requests"))
		} else {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		}
	}).Methods(http.MethodGet)

	r.HandleFunc("/status/{code:[0-9]{3}}", func(w http.ResponseWriter, r *http.Request) {
		code, _ := strconv.Atoi(mux.Vars(r)["code"])
		w.WriteHeader(code)
		w.Write([]byte(http.StatusText(code)))
	})

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	return r
}

func computeHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()

	n, err := strconv.ParseInt(q.Get("n"), 10, 64)
	if err != nil || n < 0 {
		http.Error(w, fmt.Sprintf("invalid n %q", q.Get("n")), http.StatusBadRequest)
		return
	}

	resp := ComputeResponse{
		N:       n,
		Factors: Factorize(n),
		ReqID:   q.Get("req_id"),
	}
	resp.ElapsedMs = float64(time.Since(start).Microseconds()) / 1000.0

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Factorize returns the prime factors of n in ascending order, by trial
// division. n < 2 has no factors.
func Factorize(n int64) []int64 {
	factors := []int64{}
	for p := int64(2); p*p <= n; p++ {
		for n%p == 0 {
			factors = append(factors, p)
			n /= p
		}
	}
	if n > 1 {
		factors = append(factors, n)
	}
	return factors
}

// Start serves NewRouter on cfg.Port in the background.
func Start(cfg ServerConfig) *http.Server {
	addr := fmt.Sprintf(":%d", cfg.Port)
	fmt.Printf("👻 Dummy Server running on http://localhost%s\n", addr)
	fmt.Println("   Endpoints: /compute?n=62340&req_id=x, /slow, /error, /status/{code}, /healthz")

	server := &http.Server{
		Addr:    addr,
		Handler: NewRouter(),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("Server failed: %v\n", err)
		}
	}()
	return server
}
