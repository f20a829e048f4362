// Package service implements the question/answer operations: input
// validation, moderation screening and persistence, in that order. Cheap
// checks run before any external call.
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/askstack/askstack/pkg/domain"
	"github.com/askstack/askstack/pkg/errors"
	"github.com/askstack/askstack/pkg/httputil"
	"github.com/askstack/askstack/pkg/logging"
	"github.com/askstack/askstack/pkg/moderation"
	"github.com/askstack/askstack/pkg/storage"
)

// Input size limits. Content large enough to blow past these is rejected
// before it reaches the moderation API.
const (
	maxTitleLen   = 255
	maxContentLen = 64 * 1024
	maxTags       = 10
)

// QAService answers the question/answer use cases. All writes require a
// resolved requester; the ownership model is shared, so any authenticated
// account may mutate any record.
type QAService struct {
	store  storage.Store
	mod    moderation.Gateway
	logger *logging.ColoredLogger
}

// NewQAService wires the service to its storage and moderation dependencies.
func NewQAService(store storage.Store, mod moderation.Gateway, logger *logging.ColoredLogger) *QAService {
	return &QAService{store: store, mod: mod, logger: logger}
}

// QuestionInput is the payload for creating a question.
type QuestionInput struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// CreateQuestion validates and screens the input, then persists a new
// question. Both title and content must pass moderation.
func (s *QAService) CreateQuestion(ctx context.Context, in QuestionInput, requester string) (domain.Question, error) {
	if err := validateTitle(in.Title); err != nil {
		return domain.Question{}, err
	}
	if err := validateContent(in.Content); err != nil {
		return domain.Question{}, err
	}
	tags, err := validateTags(in.Tags)
	if err != nil {
		return domain.Question{}, err
	}

	if err := s.screen(ctx, "title", in.Title); err != nil {
		return domain.Question{}, err
	}
	if err := s.screen(ctx, "content", in.Content); err != nil {
		return domain.Question{}, err
	}

	q, err := s.store.AddQuestion(ctx, domain.Question{
		Title:   in.Title,
		Content: in.Content,
		Tags:    tags,
	})
	if err != nil {
		return domain.Question{}, err
	}

	s.logger.ComponentInfo(logging.ComponentService, "question created",
		zap.Int64("id", q.ID),
		zap.String("requester", requester))
	return q, nil
}

// GetQuestion returns a single question by id.
func (s *QAService) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	return s.store.GetQuestion(ctx, id)
}

// ListQuestions returns a page of questions, optionally narrowed to a tag.
// Reads are public.
func (s *QAService) ListQuestions(ctx context.Context, page storage.Page, tag string) ([]domain.Question, error) {
	if tag != "" {
		normalized := domain.NormalizeTags([]string{tag})
		if len(normalized) == 0 || !httputil.ValidateTag(normalized[0]) {
			return nil, errors.NewValidationError("tag", "invalid tag filter")
		}
		tag = normalized[0]
	}
	return s.store.ListQuestions(ctx, page, storage.QuestionFilter{Tag: tag})
}

// UpdateQuestion applies a partial update. Any free-text field present in the
// patch is re-screened before the write.
func (s *QAService) UpdateQuestion(ctx context.Context, id int64, patch domain.QuestionPatch, requester string) (domain.Question, error) {
	if patch.IsZero() {
		return domain.Question{}, errors.NewValidationError("patch", "no fields to update")
	}
	if patch.Title != nil {
		if err := validateTitle(*patch.Title); err != nil {
			return domain.Question{}, err
		}
	}
	if patch.Content != nil {
		if err := validateContent(*patch.Content); err != nil {
			return domain.Question{}, err
		}
	}
	if patch.Tags != nil {
		tags, err := validateTags(*patch.Tags)
		if err != nil {
			return domain.Question{}, err
		}
		patch.Tags = &tags
	}

	if patch.Title != nil {
		if err := s.screen(ctx, "title", *patch.Title); err != nil {
			return domain.Question{}, err
		}
	}
	if patch.Content != nil {
		if err := s.screen(ctx, "content", *patch.Content); err != nil {
			return domain.Question{}, err
		}
	}

	q, err := s.store.UpdateQuestion(ctx, id, patch)
	if err != nil {
		return domain.Question{}, err
	}

	s.logger.ComponentInfo(logging.ComponentService, "question updated",
		zap.Int64("id", id),
		zap.String("requester", requester))
	return q, nil
}

// DeleteQuestion removes a question and all of its answers.
func (s *QAService) DeleteQuestion(ctx context.Context, id int64, requester string) error {
	if err := s.store.DeleteQuestion(ctx, id); err != nil {
		return err
	}
	s.logger.ComponentInfo(logging.ComponentService, "question deleted",
		zap.Int64("id", id),
		zap.String("requester", requester))
	return nil
}

// CreateAnswer validates and screens the content, then persists an answer to
// an existing question. A missing parent surfaces as not-found on the
// question.
func (s *QAService) CreateAnswer(ctx context.Context, questionID int64, content, requester string) (domain.Answer, error) {
	if err := validateContent(content); err != nil {
		return domain.Answer{}, err
	}
	if err := s.screen(ctx, "content", content); err != nil {
		return domain.Answer{}, err
	}

	a, err := s.store.AddAnswer(ctx, domain.Answer{QuestionID: questionID, Content: content})
	if err != nil {
		return domain.Answer{}, err
	}

	s.logger.ComponentInfo(logging.ComponentService, "answer created",
		zap.Int64("id", a.ID),
		zap.Int64("question_id", questionID),
		zap.String("requester", requester))
	return a, nil
}

// ListAnswers returns a page of answers for a question. The question must
// exist.
func (s *QAService) ListAnswers(ctx context.Context, questionID int64, page storage.Page) ([]domain.Answer, error) {
	if _, err := s.store.GetQuestion(ctx, questionID); err != nil {
		return nil, err
	}
	return s.store.ListAnswers(ctx, questionID, page)
}

// UpdateAnswer replaces an answer's content. The new content is re-screened
// before the write.
func (s *QAService) UpdateAnswer(ctx context.Context, id int64, content, requester string) (domain.Answer, error) {
	if err := validateContent(content); err != nil {
		return domain.Answer{}, err
	}
	if err := s.screen(ctx, "content", content); err != nil {
		return domain.Answer{}, err
	}

	a, err := s.store.UpdateAnswer(ctx, id, content)
	if err != nil {
		return domain.Answer{}, err
	}

	s.logger.ComponentInfo(logging.ComponentService, "answer updated",
		zap.Int64("id", id),
		zap.String("requester", requester))
	return a, nil
}

// DeleteAnswer removes a single answer.
func (s *QAService) DeleteAnswer(ctx context.Context, id int64, requester string) error {
	if err := s.store.DeleteAnswer(ctx, id); err != nil {
		return err
	}
	s.logger.ComponentInfo(logging.ComponentService, "answer deleted",
		zap.Int64("id", id),
		zap.String("requester", requester))
	return nil
}

// screen asks the moderation gateway for a verdict on one field. Flagged
// content and an unavailable gateway are both rejections; unscreened content
// is never admitted.
func (s *QAService) screen(ctx context.Context, field, text string) error {
	res, err := s.mod.Screen(ctx, text)
	if err != nil {
		return err
	}
	if res.Flagged {
		s.logger.ComponentWarn(logging.ComponentService, "content rejected by moderation",
			zap.String("field", field),
			zap.Int("matches", len(res.Matches)))
		return errors.NewContentRejectedError(field)
	}
	return nil
}

func validateTitle(title string) error {
	if httputil.IsEmpty(title) {
		return errors.NewValidationError("title", "must not be empty")
	}
	if len(title) > maxTitleLen {
		return errors.NewValidationError("title", "too long")
	}
	return nil
}

func validateContent(content string) error {
	if httputil.IsEmpty(content) {
		return errors.NewValidationError("content", "must not be empty")
	}
	if len(content) > maxContentLen {
		return errors.NewValidationError("content", "too long")
	}
	return nil
}

func validateTags(tags []string) ([]string, error) {
	normalized := domain.NormalizeTags(tags)
	if len(normalized) > maxTags {
		return nil, errors.NewValidationError("tags", "too many tags")
	}
	for _, tag := range normalized {
		if !httputil.ValidateTag(tag) {
			return nil, errors.NewValidationError("tags", "invalid tag: "+tag)
		}
	}
	return normalized, nil
}
