// Package coursedex embeds the coursedex course search service in a Go
// program. It connects to Elasticsearch, a record store (MongoDB or
// Postgres) and an optional result cache, and exposes the same search and
// indexing operations as the HTTP API.
//
//	client, err := coursedex.New(ctx,
//	    coursedex.WithElasticsearch("http://localhost:9200"),
//	    coursedex.WithMongo("mongodb://localhost:27017", "catalog"),
//	    coursedex.WithRedis("localhost:6379", ""),
//	)
//	if err != nil { ... }
//	defer client.Close(ctx)
//
//	_, _ = client.Reindex(ctx)
//	res, _ := client.Courses().Keyword("data").MaxTuition(50000).Limit(20).Do(ctx)
//	rec, err := client.Course(ctx, "C-42") // errors.Is(err, coursedex.ErrNotFound) when absent
package coursedex
