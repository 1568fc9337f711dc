package core

type Services struct {
	CronJob     *CronJobService
	Run         *RunService
	Search      *SearchService
	APIToken    *APITokenService
	Profile     *ProfileService
	Integration *IntegrationService
	Session     *SessionService
	Activity    *ActivityService
	Dashboard   *DashboardService
}

func NewServices(db DB) *Services {
	return &Services{
		CronJob:     NewCronJobService(db),
		Run:         NewRunService(db),
		Search:      NewSearchService(db),
		APIToken:    NewAPITokenService(db),
		Profile:     NewProfileService(db),
		Integration: NewIntegrationService(db),
		Session:     NewSessionService(db),
		Activity:    NewActivityService(db),
		Dashboard:   NewDashboardService(db),
	}
}
