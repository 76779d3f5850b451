package shared

import "github.com/google/uuid"

// Id cố định của tài khoản seed. Content seed tham chiếu các id này làm author.
var (
	SeedAdminID   = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	SeedEditorID  = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	SeedWriterID  = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	SeedAuthor2ID = uuid.MustParse("44444444-4444-4444-4444-444444444444")
	SeedAuthor3ID = uuid.MustParse("55555555-5555-5555-5555-555555555555")
)
