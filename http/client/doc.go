// Package client is used to interact with a bpmn-modeld server via HTTP.
/*
client builds documents remotely and reads them.

Create a Client

A client requires the base URL of a HTTP server. If the server requires basic authentication, username and password
must be configured.

	client, err := client.New("http://localhost:8080", func(o *client.Options) {
		o.BasicAuthUsername = "username"
		o.BasicAuthPassword = "password"
	})
	if err != nil {
		log.Fatalf("failed to create HTTP client: %v", err)
	}

	bpmnXml, err := client.PutDocument(context.Background(), "pizza-order.bpmn", model.PizzaOrderDescription())
	if err != nil {
		log.Fatalf("failed to put document: %v", err)
	}

Problems, caused by a description that cannot be built, are returned as [model.Error].
*/
package client
