package apiv1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apierrors "github.com/sqltalk/sqltalk/server/internal/errors"
	"github.com/sqltalk/sqltalk/store"
)

type trainItemRequest struct {
	Kind     string `json:"kind"`
	Question string `json:"question"`
	Content  string `json:"content"`
}

type trainRequest struct {
	TenantUID string             `json:"tenant_uid"`
	Items     []trainItemRequest `json:"items"`
}

type trainResponse struct {
	Created []string `json:"created"` // UIDs in request order
}

// train stores training items for a tenant, embedding each one so it
// becomes retrievable. sql_pair items are embedded by question, the
// rest by content.
func (s *APIV1Service) train(c echo.Context) error {
	var req trainRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, apierrors.InvalidArgument("invalid request body"))
	}
	if len(req.Items) == 0 {
		return jsonError(c, http.StatusBadRequest, apierrors.InvalidArgument("items is required"))
	}
	if s.client == nil {
		return s.pipelineError(c, apierrors.LLMUnavailable("no embedding provider configured"))
	}

	tenant, err := s.tenantByUID(c, req.TenantUID)
	if tenant == nil {
		return err
	}

	s.metrics.RecordRequest("train")
	ctx := c.Request().Context()

	// Validate everything before writing anything.
	for i, item := range req.Items {
		kind := store.TrainingKind(item.Kind)
		if !kind.Valid() {
			return jsonError(c, http.StatusBadRequest,
				apierrors.InvalidArgument("items["+strconv.Itoa(i)+"]: unknown kind "+item.Kind))
		}
		if item.Content == "" {
			return jsonError(c, http.StatusBadRequest,
				apierrors.InvalidArgument("items["+strconv.Itoa(i)+"]: content is required"))
		}
		if kind == store.TrainingKindSQLPair && item.Question == "" {
			return jsonError(c, http.StatusBadRequest,
				apierrors.InvalidArgument("items["+strconv.Itoa(i)+"]: sql_pair requires a question"))
		}
	}

	created := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		kind := store.TrainingKind(item.Kind)

		text := item.Content
		if kind == store.TrainingKindSQLPair {
			text = item.Question
		}
		embedding, err := s.client.Embed(ctx, text)
		if err != nil {
			s.metrics.RecordFailure("train")
			return s.pipelineError(c,
				apierrors.Wrap(err, apierrors.ErrCodeGenerationFailed, "failed to embed training item"))
		}

		stored, err := s.Store.CreateTrainingItem(ctx, &store.TrainingItem{
			TenantID:  tenant.ID,
			Kind:      kind,
			Question:  item.Question,
			Content:   item.Content,
			Embedding: embedding,
		})
		if err != nil {
			s.metrics.RecordFailure("train")
			return s.pipelineError(c,
				apierrors.Wrap(err, apierrors.ErrCodeExecutionFailed, "failed to store training item"))
		}
		created = append(created, stored.UID)
	}

	return c.JSON(http.StatusOK, &trainResponse{Created: created})
}

type trainingItemResponse struct {
	UID       string `json:"uid"`
	Kind      string `json:"kind"`
	Question  string `json:"question,omitempty"`
	Content   string `json:"content"`
	CreatedTs int64  `json:"created_ts"`
}

// listTrainingData lists a tenant's training items, newest first.
// Embeddings are not returned.
func (s *APIV1Service) listTrainingData(c echo.Context) error {
	tenant, err := s.tenantByUID(c, c.QueryParam("tenant_uid"))
	if tenant == nil {
		return err
	}

	find := &store.FindTrainingItem{TenantID: &tenant.ID}
	if kindParam := c.QueryParam("kind"); kindParam != "" {
		kind := store.TrainingKind(kindParam)
		if !kind.Valid() {
			return jsonError(c, http.StatusBadRequest,
				apierrors.InvalidArgument("unknown kind "+kindParam))
		}
		find.Kind = &kind
	}
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil || limit <= 0 {
			return jsonError(c, http.StatusBadRequest, apierrors.InvalidArgument("invalid limit"))
		}
		find.Limit = &limit
	}

	items, err := s.Store.ListTrainingItems(c.Request().Context(), find)
	if err != nil {
		return s.pipelineError(c,
			apierrors.Wrap(err, apierrors.ErrCodeExecutionFailed, "failed to list training items"))
	}

	response := make([]*trainingItemResponse, 0, len(items))
	for _, item := range items {
		response = append(response, &trainingItemResponse{
			UID:       item.UID,
			Kind:      string(item.Kind),
			Question:  item.Question,
			Content:   item.Content,
			CreatedTs: item.CreatedTs,
		})
	}
	return c.JSON(http.StatusOK, response)
}

// deleteTrainingData removes one training item by UID.
func (s *APIV1Service) deleteTrainingData(c echo.Context) error {
	uid := c.Param("uid")
	if err := s.Store.DeleteTrainingItem(c.Request().Context(), &store.DeleteTrainingItem{UID: uid}); err != nil {
		return jsonError(c, http.StatusNotFound,
			apierrors.Wrap(err, apierrors.ErrCodeInvalidArgument, "training item not found"))
	}
	return c.NoContent(http.StatusNoContent)
}
