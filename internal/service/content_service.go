package service

import (
	"context"
	"errors"
	"time"

	"github.com/d60-Lab/storefront/internal/model"
	"github.com/d60-Lab/storefront/internal/repository"
)

var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// BlogService 博客服务
type BlogService interface {
	Create(ctx context.Context, post *model.BlogPost) error
	Update(ctx context.Context, post *model.BlogPost) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*model.BlogPost, error)
	GetBySlug(ctx context.Context, slug string) (*model.BlogPost, error)
	List(ctx context.Context, publishedOnly bool, page, pageSize int) ([]*model.BlogPost, error)
	Publish(ctx context.Context, id string) error
}

type blogService struct {
	repo repository.BlogRepository
}

func NewBlogService(repo repository.BlogRepository) BlogService { return &blogService{repo: repo} }

func (s *blogService) Create(ctx context.Context, post *model.BlogPost) error {
	return s.repo.Create(ctx, post)
}

func (s *blogService) Update(ctx context.Context, post *model.BlogPost) error {
	return s.repo.Update(ctx, post)
}

func (s *blogService) Delete(ctx context.Context, id string) error { return s.repo.Delete(ctx, id) }

func (s *blogService) Get(ctx context.Context, id string) (*model.BlogPost, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *blogService) GetBySlug(ctx context.Context, slug string) (*model.BlogPost, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *blogService) List(ctx context.Context, publishedOnly bool, page, pageSize int) ([]*model.BlogPost, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return s.repo.List(ctx, publishedOnly, (page-1)*pageSize, pageSize)
}

func (s *blogService) Publish(ctx context.Context, id string) error {
	return s.repo.Publish(ctx, id, time.Now())
}

// NewsletterService 邮件订阅服务
type NewsletterService interface {
	Subscribe(ctx context.Context, email, source string) error
	Unsubscribe(ctx context.Context, email string) error
	List(ctx context.Context, activeOnly bool, page, pageSize int) ([]*model.Subscriber, error)
	Stats(ctx context.Context) (*model.NewsletterStats, error)
}

type newsletterService struct {
	repo repository.SubscriberRepository
}

func NewNewsletterService(repo repository.SubscriberRepository) NewsletterService {
	return &newsletterService{repo: repo}
}

func (s *newsletterService) Subscribe(ctx context.Context, email, source string) error {
	return s.repo.Subscribe(ctx, email, source)
}

func (s *newsletterService) Unsubscribe(ctx context.Context, email string) error {
	return s.repo.Unsubscribe(ctx, email)
}

func (s *newsletterService) List(ctx context.Context, activeOnly bool, page, pageSize int) ([]*model.Subscriber, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}
	return s.repo.List(ctx, activeOnly, (page-1)*pageSize, pageSize)
}

func (s *newsletterService) Stats(ctx context.Context) (*model.NewsletterStats, error) {
	return s.repo.Stats(ctx)
}

// TestimonialService 客户评价服务
type TestimonialService interface {
	// Submit 顾客提交评价，默认待审核
	Submit(ctx context.Context, t *model.Testimonial) error
	Approve(ctx context.Context, id string) error
	Withdraw(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, approvedOnly bool, page, pageSize int) ([]*model.Testimonial, error)
	Reorder(ctx context.Context, ids []string) error
}

type testimonialService struct {
	repo repository.TestimonialRepository
}

func NewTestimonialService(repo repository.TestimonialRepository) TestimonialService {
	return &testimonialService{repo: repo}
}

func (s *testimonialService) Submit(ctx context.Context, t *model.Testimonial) error {
	if t.Rating < 1 || t.Rating > 5 {
		return ErrInvalidRating
	}
	t.Approved = false
	return s.repo.Create(ctx, t)
}

func (s *testimonialService) Approve(ctx context.Context, id string) error {
	return s.repo.SetApproved(ctx, id, true)
}

func (s *testimonialService) Withdraw(ctx context.Context, id string) error {
	return s.repo.SetApproved(ctx, id, false)
}

func (s *testimonialService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *testimonialService) List(ctx context.Context, approvedOnly bool, page, pageSize int) ([]*model.Testimonial, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return s.repo.List(ctx, approvedOnly, (page-1)*pageSize, pageSize)
}

func (s *testimonialService) Reorder(ctx context.Context, ids []string) error {
	return s.repo.Reorder(ctx, ids)
}
