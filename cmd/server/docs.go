package main

//go:generate swag init -g cmd/server/main.go -o docs

// @title           Matka API
// @version         0.1.0
// @description     Markets, ratings, bets and settlement of declared results.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
