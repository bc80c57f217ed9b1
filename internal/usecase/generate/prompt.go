package generate

// The two prompt blueprints. Placeholders are filled by PromptBuilder;
// nothing else about them varies at runtime.

const queryPromptTemplate = `You are a penetration testing expert. Your task is to create a realistic user query that a penetration tester might ask.

Use the following scenario context. You don't need to explicitly list these values in the generated user query, but use them to inform the scenario:
    * Engagement Phase: {{.Phase}}
    * Target Environment: {{.Environment}}
    * Engagement Type: {{.EngagementType}}
    * Constraints: {{.Constraint}}

Based on that scenario, write a realistic, natural language user query that a penetration tester would ask. The query should describe a specific penetration testing task they want to perform. Think about:
    * What is the pentester trying to achieve? (e.g., identify vulnerabilities, exploit a service, gather information)
    * Where are they operating? (e.g., network type, specific system)
    * What kind of output or result do they need? (e.g., list of IPs, vulnerability report, file)

Example user query:
I'm currently scanning an internal network and I need to check for SMBv1 signing enabled on live hosts. I want a file created that contains hostname, IP and SMB version information.

Respond ONLY with the user query, without any extra text or markdown formatting.`

const commandPromptTemplate = `You are a penetration testing expert. Your task is to respond to a penetration testing user query by generating a penetration testing command in JSON format.

Here's how to respond:

1. Understand the User Query: Carefully read and understand the provided user query.
2. Respond to the User Query: Generate a penetration testing command in JSON format that would address the user's request.

User query:
{{.UserQuery}}

Your final response must be a JSON object with exactly this structure:
{
  "generated_user_query": "<the user query>",
  "command": "<generated_command>",
  "steps": {
    "Goal Identification": "<Step 1: Clearly identify the goal of this specific command based on the user query.>",
    "Right Tool Selection": "<Step 2: Justify the selection of the tool(s) for this command and context.>",
    "Command Optimization": "<Step 3: Explain any specific options or parameters used to optimize the command for the user query's context.>",
    "Command Explanation": "<Step 4: Provide a concise explanation of what the command does and why it's appropriate for the user query.>",
    "Risk Analysis": "<Step 5: Briefly analyze potential risks associated with executing this command in the target environment.>",
    "Risk Determination": "<Step 6: Determine and categorize the overall risk level (Low, Medium, High) of using this command in the implied context.>"
  }
}

Ensure the generated command and steps are relevant to the user query. Focus on generating practical and realistic penetration testing commands that directly address the user's request. Respond ONLY in JSON format, without any extra text or markdown formatting outside the JSON object.`
