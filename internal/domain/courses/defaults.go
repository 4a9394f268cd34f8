package courses

// DefaultCatalog is the seed table written at startup. Existing rows keep
// their overrides; only missing course ids are inserted.
func DefaultCatalog() []CourseAccessConfig {
	return []CourseAccessConfig{
		{CourseID: "welcome-intro", Title: "Welcome to the Academy", Category: CategoryFreeIntro},
		{CourseID: "platform-tour", Title: "Platform Tour", Category: CategoryFreeIntro},
		{CourseID: "start-here", Title: "Start Here", Category: CategoryStartHere},
		{CourseID: "first-90-days", Title: "Your First 90 Days", Category: CategoryStartHere},
		{CourseID: "offer-design", Title: "Offer Design", Category: CategoryAllAccess},
		{CourseID: "content-engine", Title: "The Content Engine", Category: CategoryAllAccess},
		{CourseID: "email-list-growth", Title: "Email List Growth", Category: CategoryAllAccess},
		{CourseID: "sales-calls", Title: "Running Sales Calls", Category: CategoryAllAccess},
		{CourseID: "paid-ads-basics", Title: "Paid Ads Basics", Category: CategoryAllAccess},
		{CourseID: "masterclass-scaling", Title: "Masterclass: Scaling to Seven Figures", Category: CategoryMasterclass},
		{CourseID: "masterclass-funnels", Title: "Masterclass: Evergreen Funnels", Category: CategoryMasterclass},
		{CourseID: "masterclass-hiring", Title: "Masterclass: Hiring Your First Team", Category: CategoryMasterclass},
	}
}
