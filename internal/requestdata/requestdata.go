package requestdata

import (
	"context"

	"github.com/google/uuid"
)

type requestDataKey struct{}

type RequestData struct {
	TokenString string
	UserID      uuid.UUID
	Role        string
	SchoolID    *uuid.UUID
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

// IsSuperadmin reports whether the request belongs to a superadmin user.
func (rd *RequestData) IsSuperadmin() bool {
	return rd != nil && rd.Role == "superadmin"
}

// CanAccessSchool reports whether the request may act on resources of the
// given school. Superadmins may act on any school.
func (rd *RequestData) CanAccessSchool(schoolID uuid.UUID) bool {
	if rd == nil {
		return false
	}
	if rd.IsSuperadmin() {
		return true
	}
	return rd.SchoolID != nil && *rd.SchoolID == schoolID
}
