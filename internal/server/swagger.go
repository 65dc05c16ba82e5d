package server

//go:generate swag init -g swagger.go -o docs --parseDependency

// @title formfetch API
// @version 0.1
// @description Send single HTTP requests through bound field triples and inspect their history.
// @contact.name formfetch maintainers
// @contact.url https://github.com/raysh454/formfetch
// @BasePath /
