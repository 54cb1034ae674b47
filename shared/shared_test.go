package shared_test

import (
	"context"
	"errors"
	"innkeep/shared"
	cacheMocks "innkeep/shared/cache/mocks"
	"innkeep/shared/constant"
	"innkeep/shared/dto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestCalculateTotalPage(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		limit    int
		expected int
	}{
		{name: "zero total returns 1", total: 0, limit: 10, expected: 1},
		{name: "zero limit returns 1", total: 100, limit: 0, expected: 1},
		{name: "negative limit returns 1", total: 100, limit: -5, expected: 1},
		{name: "exact division", total: 100, limit: 10, expected: 10},
		{name: "remainder rounds up", total: 101, limit: 10, expected: 11},
		{name: "total smaller than limit", total: 3, limit: 10, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shared.CalculateTotalPage(tt.total, tt.limit)

			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestFilterByID(t *testing.T) {
	result := shared.FilterByID("booking-1", "id", "bookings")

	if len(result.Filters) != 1 {
		t.Fatalf("expected 1 filter, got %d", len(result.Filters))
	}

	filter, ok := result.Filters[0].(dto.Filter)
	if !ok {
		t.Fatal("expected filter to be of type dto.Filter")
	}

	if filter.Field != "id" || filter.Value != "booking-1" || filter.Table != "bookings" {
		t.Errorf("unexpected filter %+v", filter)
	}

	if filter.Operator != dto.FilterOperatorEq {
		t.Errorf("expected operator to be %s, got %s", dto.FilterOperatorEq, filter.Operator)
	}
}

func TestBuildCacheKey(t *testing.T) {
	assert.Equal(t, "booking:get:abc", shared.BuildCacheKey(constant.CachePrefixBookingGet, "abc"))
	assert.Equal(t, "booking:get", shared.BuildCacheKey(constant.CachePrefixBookingGet))
}

func TestBuildCacheKeyWithQuery(t *testing.T) {
	params := dto.QueryParams{Page: 1, Limit: 10}
	filter := shared.FilterByID("user-1", "user_id", "bookings")

	first := shared.BuildCacheKeyWithQuery(constant.CachePrefixBookingGets, params, filter)
	second := shared.BuildCacheKeyWithQuery(constant.CachePrefixBookingGets, params, filter)
	other := shared.BuildCacheKeyWithQuery(constant.CachePrefixBookingGets, dto.QueryParams{Page: 2, Limit: 10}, filter)

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.True(t, strings.HasPrefix(first, constant.CachePrefixBookingGets+":"))
}

func TestInvalidateCaches(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockCache.EXPECT().Clear(gomock.Any(), "availability:search:*").Return(nil)
	mockCache.EXPECT().Clear(gomock.Any(), "booking:gets:*").Return(errors.New("redis down"))

	shared.InvalidateCaches(context.Background(), mockCache, constant.CachePrefixAvailability)
	shared.InvalidateCaches(context.Background(), mockCache, constant.CachePrefixBookingGets)
}
