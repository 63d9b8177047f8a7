package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"bmipredict/db"
	"bmipredict/features"
	"bmipredict/inference"
	"bmipredict/monitoring"
)

// ModelSource 提供已加载的推理适配器，*inference.Loader 满足该接口
type ModelSource interface {
	Load() (*inference.Adapter, error)
}

// Deps 处理器依赖，除 Models 外均可为空
type Deps struct {
	Models   ModelSource
	Store    *db.Store
	Hub      *monitoring.Hub
	Metrics  *monitoring.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// Handler 预测API处理器
type Handler struct {
	Deps
}

// PredictResponse 预测响应
type PredictResponse struct {
	PredictionID         string    `json:"prediction_id,omitempty"`
	Category             string    `json:"category"`
	ClassIndex           int       `json:"class_index"`
	Confidence           float64   `json:"confidence"`
	ConfidencePercentage string    `json:"confidence_percentage"`
	Probabilities        []float64 `json:"probabilities"`
	BMI                  float64   `json:"bmi"`
}

// SchemaResponse 输入特征说明
type SchemaResponse struct {
	Features   []string                  `json:"features"`
	Ordinals   map[string]map[string]int `json:"ordinals"`
	Categories []string                  `json:"categories,omitempty"`
}

func NewHandler(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Handler{Deps: deps}
}

// Register 注册所有路由
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/schema", h.handleSchema)
	mux.HandleFunc("POST /api/predict", h.handlePredict)
	mux.HandleFunc("GET /api/predictions", h.handlePredictions)
	if h.Hub != nil {
		mux.HandleFunc("GET /api/ws/predictions", h.Hub.HandleWebSocket)
	}
	if h.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{}))
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Models.Load(); err != nil {
		h.respond(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	h.respond(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleSchema(w http.ResponseWriter, r *http.Request) {
	response := SchemaResponse{
		Features: features.FeatureNames(),
		Ordinals: map[string]map[string]int{
			"gender":    codes(features.GenderCodes),
			"yes_no":    codes(features.YesNoCodes),
			"frequency": codes(features.FrequencyScale),
			"transport": codes(features.TransportModes),
		},
	}
	if adapter, err := h.Models.Load(); err == nil {
		response.Categories = adapter.Mapping().Names()
	}
	h.respond(w, r, http.StatusOK, response)
}

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	var raw features.RawInput
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&raw); err != nil {
		h.Metrics.ObserveFailure("input")
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	adapter, err := h.Models.Load()
	if err != nil {
		h.Metrics.ObserveFailure("load")
		h.Logger.Error("classifier unavailable", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	start := time.Now()
	prediction, record, err := adapter.PredictRaw(raw)
	switch {
	case errors.Is(err, features.ErrDomain):
		h.Metrics.ObserveFailure("input")
		h.Logger.Info("rejected input", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("please correct the input: %v", err))
		return
	case errors.Is(err, inference.ErrPrediction):
		h.Metrics.ObserveFailure("prediction")
		h.Logger.Error("prediction failed", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	case err != nil:
		h.Metrics.ObserveFailure("prediction")
		h.Logger.Error("prediction failed", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.Metrics.ObservePrediction(prediction.Category, time.Since(start))

	response := PredictResponse{
		Category:             prediction.Category,
		ClassIndex:           prediction.ClassIndex,
		Confidence:           prediction.Confidence,
		ConfidencePercentage: prediction.Percentage(),
		Probabilities:        prediction.Probabilities,
		BMI:                  record.BMI,
	}
	if h.Store != nil {
		entry, err := h.Store.SavePrediction(record, prediction)
		if err != nil {
			h.Logger.Warn("journal prediction", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		} else {
			response.PredictionID = entry.ID
		}
	}
	if h.Hub != nil {
		h.Hub.PublishPrediction(monitoring.PredictionMessage{
			PredictionID: response.PredictionID,
			Category:     prediction.Category,
			Confidence:   prediction.Confidence,
			BMI:          record.BMI,
			Probability:  prediction.Probabilities,
		})
	}

	h.respond(w, r, http.StatusOK, response)
}

func (h *Handler) handlePredictions(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusNotFound, "prediction journal is disabled")
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 || l > 1000 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = l
	}

	logs, err := h.Store.RecentPredictions(limit)
	if err != nil {
		h.Logger.Error("query predictions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	counts, err := h.Store.CategoryCounts()
	if err != nil {
		h.Logger.Error("count predictions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.respond(w, r, http.StatusOK, map[string]interface{}{
		"predictions": logs,
		"counts":      counts,
	})
}

func codes[T ~string](table []T) map[string]int {
	out := make(map[string]int, len(table))
	for i, label := range table {
		out[string(label)] = i
	}
	return out
}

// respondJSON 统一JSON响应，编码失败时返回500
func respondJSON(w http.ResponseWriter, status int, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"internal server error"}` + "\n"))
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(append(payload, '\n'))
	return err
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if err := respondJSON(w, status, data); err != nil {
		h.Logger.Error("write response", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
