// Package api provides the LifeOps REST API.
//
//	@title						LifeOps API
//	@version					1.0
//	@description				Cronjob automation control plane API
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package api
